// Package loader reads the static drug dataset file that backs the catalog.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/giygas/drugcatalog-api/logging"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Compile-time check to ensure FileSource implements DatasetSource
var _ interfaces.DatasetSource = (*FileSource)(nil)

// FileSource loads drug records from a JSON file holding an array of records
type FileSource struct {
	path      string
	validator interfaces.DataValidator
}

// NewFileSource creates a new FileSource for the dataset at path
func NewFileSource(path string, validator interfaces.DataValidator) *FileSource {
	return &FileSource{
		path:      filepath.Clean(path),
		validator: validator,
	}
}

// Path returns the location of the dataset
func (s *FileSource) Path() string {
	return s.path
}

// Checksum returns the SHA-256 of the dataset file as it currently is on disk
func (s *FileSource) Checksum() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read dataset %s: %w", s.path, err)
	}
	return checksum(raw), nil
}

// Load reads, decodes and validates the dataset
func (s *FileSource) Load() ([]entities.DrugRecord, string, error) {
	start := time.Now()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read dataset %s: %w", s.path, err)
	}

	records, err := Decode(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode dataset %s: %w", s.path, err)
	}

	if s.validator != nil {
		if err := s.validator.ValidateDataset(records); err != nil {
			return nil, "", fmt.Errorf("dataset %s failed validation: %w", s.path, err)
		}
		logQualityReport(s.validator.ReportDataQuality(records))
	}

	sum := checksum(raw)
	logging.Info("Dataset loaded",
		"path", s.path,
		"records", len(records),
		"checksum", sum[:12],
		"duration", time.Since(start).String(),
	)

	return records, sum, nil
}

// Decode parses a dataset from raw bytes. Content that is not valid UTF-8 is
// decoded as ISO-8859-1, and every string is normalized to NFC.
func Decode(raw []byte) ([]entities.DrugRecord, error) {
	// As some exports are in iso-8859-1 and some in utf8, check the content first
	var reader io.Reader
	if utf8.Valid(raw) {
		reader = bytes.NewReader(raw)
	} else {
		logging.Debug("Dataset is not valid UTF-8, decoding as ISO-8859-1")
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
	}

	var records []entities.DrugRecord
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	for i := range records {
		normalizeRecord(&records[i])
	}

	return records, nil
}

func normalizeRecord(r *entities.DrugRecord) {
	r.Name = norm.NFC.String(r.Name)
	r.Dosage = norm.NFC.String(r.Dosage)
	r.Duration = norm.NFC.String(r.Duration)
	r.UsedFor = norm.NFC.String(r.UsedFor)
	normalizeAll(r.Aliases)
	normalizeAll(r.Interactions)
	normalizeAll(r.Alternatives)
}

func normalizeAll(values []string) {
	for i, v := range values {
		values[i] = norm.NFC.String(v)
	}
}

func checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func logQualityReport(report *interfaces.DataQualityReport) {
	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate drug names detected, first record wins",
			"total", len(report.DuplicateNames),
			"names", report.DuplicateNames,
		)
	}

	if len(report.ShadowedKeys) > 0 {
		logging.Warn("Aliases shadowed by an earlier record",
			"total", len(report.ShadowedKeys),
			"aliases", report.ShadowedKeys,
		)
	}

	if report.DanglingInteractions > 0 {
		logging.Warn("Interactions naming unknown drugs",
			"count", report.DanglingInteractions,
			"names", report.DanglingInteractionNames,
		)
	}

	if report.UnknownAlternatives > 0 {
		logging.Info("Alternatives naming unknown drugs", "count", report.UnknownAlternatives)
	}

	if report.RecordsWithoutCondition > 0 {
		logging.Info("Records without condition text",
			"count", report.RecordsWithoutCondition,
			"names", report.RecordsWithoutConditionNames,
		)
	}

	if report.RecordsWithoutDosage > 0 {
		logging.Debug("Records without dosage", "count", report.RecordsWithoutDosage)
	}
}
