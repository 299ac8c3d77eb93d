// Package ui holds the terminal output of the scrape command: colored
// messages, a single-line progress display that observes the crawler, the
// end-of-run summary table and optional desktop notifications.
package ui
