package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	errs "postscraper/pkg/errors"
	"postscraper/pkg/logger"
	"postscraper/pkg/models"
)

// Outcome tells the caller what Save did
type Outcome int

const (
	// OutcomeFailed is returned together with an error
	OutcomeFailed Outcome = iota
	// OutcomeSaved means both files were replaced
	OutcomeSaved
	// OutcomeNothingToSave means the result was empty and no file was touched
	OutcomeNothingToSave
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeSaved:
		return "saved"
	case OutcomeNothingToSave:
		return "nothing_to_save"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ResultStore writes a crawl result to its JSON and CSV destinations
type ResultStore struct {
	logger logger.Logger
}

// NewResultStore creates a store that logs through log
func NewResultStore(log logger.Logger) *ResultStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ResultStore{logger: log}
}

// Save replaces jsonPath and csvPath with the encoded result. Each file is
// written to a temporary sibling, synced and renamed into place, so a reader
// sees either the previous content or the new one. The JSON file is replaced
// first; a CSV failure leaves the new JSON in place.
func (s *ResultStore) Save(result models.CrawlResult, jsonPath, csvPath string) (Outcome, error) {
	if result.IsEmpty() {
		s.logger.Info("No posts collected, nothing to save")
		return OutcomeNothingToSave, nil
	}

	jsonData, err := EncodeJSON(result)
	if err != nil {
		return OutcomeFailed, errs.NewPersistError(FormatJSON, jsonPath, "encode", err)
	}
	csvData, err := EncodeCSV(result)
	if err != nil {
		return OutcomeFailed, errs.NewPersistError(FormatCSV, csvPath, "encode", err)
	}

	if err := s.replace(FormatJSON, jsonPath, jsonData); err != nil {
		return OutcomeFailed, err
	}
	if err := s.replace(FormatCSV, csvPath, csvData); err != nil {
		return OutcomeFailed, err
	}

	s.logger.InfoWithFields("Saved results", map[string]interface{}{
		"posts": result.Len(),
		"json":  jsonPath,
		"csv":   csvPath,
	})
	return OutcomeSaved, nil
}

// EncodeJSON renders posts as an indented JSON array
func EncodeJSON(result models.CrawlResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]models.Post(result)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV renders posts as CSV with a Title,URL header
func EncodeCSV(result models.CrawlResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal([]models.Post(result), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replace writes data to a temp file next to dest and renames it over dest
func (s *ResultStore) replace(format, dest string, data []byte) error {
	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errs.NewPersistError(format, dest, "create temp file", err)
	}
	tmpName := tmp.Name()

	fail := func(op string, err error) error {
		tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.WarnWithFields("Failed to remove temporary file", map[string]interface{}{
				"path":  tmpName,
				"error": rmErr.Error(),
			})
		}
		return errs.NewPersistError(format, dest, op, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fail("replace", err)
	}

	s.logger.DebugWithFields("Replaced output file", map[string]interface{}{
		"format": format,
		"path":   dest,
		"bytes":  len(data),
	})
	return nil
}

// Exists reports whether any of paths already exists
func Exists(paths ...string) bool {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}
