package models

import (
	"errors"
	"net/url"
	"time"
)

// Sentinel replaces a post field that is missing from the page markup
const Sentinel = "N/A"

// Post is a single (title, URL) pair found on a listing page
type Post struct {
	Title string `json:"Title" csv:"Title"`
	URL   string `json:"URL" csv:"URL"`
}

// NewPost builds a Post, substituting the sentinel for empty fields
func NewPost(title, url string) Post {
	if title == "" {
		title = Sentinel
	}
	if url == "" {
		url = Sentinel
	}
	return Post{Title: title, URL: url}
}

// CrawlResult holds posts in page order, then in-page order
type CrawlResult []Post

// Len returns the number of posts collected
func (r CrawlResult) Len() int {
	return len(r)
}

// IsEmpty reports whether nothing was collected
func (r CrawlResult) IsEmpty() bool {
	return len(r) == 0
}

// PageOutcome is the extraction result for one page
type PageOutcome struct {
	Posts   []Post
	HasNext bool
}

// RunConfig is the immutable input of a single crawl
type RunConfig struct {
	MaxPages          int
	BaseURL           string
	Headers           map[string]string
	RequestTimeout    time.Duration
	InterRequestDelay time.Duration
}

// Validate checks the run parameters
func (c RunConfig) Validate() error {
	var errs []error

	if c.MaxPages < 1 {
		errs = append(errs, errors.New("max pages must be a positive integer"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("base URL must be absolute"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	if c.InterRequestDelay < 0 {
		errs = append(errs, errors.New("inter-request delay cannot be negative"))
	}

	return errors.Join(errs...)
}
