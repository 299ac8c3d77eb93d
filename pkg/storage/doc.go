// Package storage persists crawl results.
//
// ResultStore writes the same result twice, as a JSON array and as a CSV file
// with a Title,URL header. Every write goes to a temporary file in the
// destination directory which is synced and then renamed over the
// destination:
//   - readers never see a half-written file
//   - a failed write leaves the previous file untouched
//   - an empty result changes nothing on disk
//
// Usage:
//
//	store := storage.NewResultStore(log)
//	outcome, err := store.Save(report.Result, "scraped_data.json", "scraped_data.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if outcome == storage.OutcomeNothingToSave {
//	    fmt.Println("nothing to save")
//	}
package storage
