// Package site fetches numbered pages of a paginated listing.
//
// A page URL is the configured base URL with the page number appended, so
// "https://example.com/page/" yields "https://example.com/page/3" for page 3.
// Every request carries the configured headers and is bounded by the request
// timeout. Bodies are decoded to UTF-8 before they are returned.
//
// Example usage:
//
//	client := site.NewClient(cfg.RunConfig(), log)
//	body, err := client.Fetch(ctx, 1)
//	if err != nil {
//	    var fetchErr *errors.Error
//	    if stderrors.As(err, &fetchErr) && fetchErr.Type == errors.ErrorTypeRateLimit {
//	        // back off
//	    }
//	}
package site
