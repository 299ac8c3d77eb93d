// Package logger provides the structured logging interface used by postscraper.
//
// It wraps zerolog with a small interface so components can log with fields
// without depending on zerolog directly. Console output goes to stderr so it
// never mixes with the prompts on stdout.
//
// Basic Usage:
//
//	log, err := logger.New(&config.LoggingConfig{Level: "info"})
//	if err != nil {
//	    return err
//	}
//	log.WithField("page", 3).Info("Successfully scraped page")
//
// Tests can use NewTestLogger to capture messages, or NewNopLogger to discard
// them.
package logger
