package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"postscraper/pkg/models"
)

// Selectors holds the CSS selectors that describe a listing page
type Selectors struct {
	// Post matches each post container
	Post string
	// Anchor matches the link inside a post container
	Anchor string
	// Next matches the next-page marker
	Next string
}

// DefaultSelectors returns the selectors for a WordPress listing with
// WP-PageNavi pagination
func DefaultSelectors() Selectors {
	return Selectors{
		Post:   ".post-title.entry-title",
		Anchor: "a",
		Next:   `a.nextpostslink[rel~="next"]`,
	}
}

// Extractor turns a listing page into posts and a next-page flag
type Extractor struct {
	post   cascadia.Selector
	anchor cascadia.Selector
	next   cascadia.Selector
}

// New compiles the selectors. An empty or invalid selector is an error.
func New(s Selectors) (*Extractor, error) {
	post, err := compile("post", s.Post)
	if err != nil {
		return nil, err
	}
	anchor, err := compile("anchor", s.Anchor)
	if err != nil {
		return nil, err
	}
	next, err := compile("next", s.Next)
	if err != nil {
		return nil, err
	}
	return &Extractor{post: post, anchor: anchor, next: next}, nil
}

func compile(name, selector string) (cascadia.Selector, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%s selector is empty", name)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid %s selector %q: %w", name, selector, err)
	}
	return sel, nil
}

// Extract reads the posts and the next-page marker from body.
//
// Each post container contributes at most one post, built from the first
// anchor inside it. Containers without an anchor are skipped. The title is
// the anchor text as is, whitespace included. HasNext only depends on the
// marker being present, so an empty body is a last page with no posts.
func (e *Extractor) Extract(body []byte) (models.PageOutcome, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.PageOutcome{}, fmt.Errorf("parse html: %w", err)
	}

	var posts []models.Post
	doc.FindMatcher(e.post).Each(func(_ int, container *goquery.Selection) {
		a := container.FindMatcher(e.anchor).First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		posts = append(posts, models.NewPost(a.Text(), strings.TrimSpace(href)))
	})

	return models.PageOutcome{
		Posts:   posts,
		HasNext: doc.FindMatcher(e.next).Length() > 0,
	}, nil
}
