// Package validation provides data validation functionality for the drug catalog API.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/interfaces"
)

// controlCharRegex matches C0/C1 control characters other than tab, newline and carriage return
var controlCharRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F\x{80}-\x{9F}]`)

const (
	maxNameLength     = 200
	maxQueryLength    = 4096
	maxFilenameLength = 255
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateRecord checks if a drug record is valid
func (v *DataValidatorImpl) ValidateRecord(r *entities.DrugRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("empty name")
	}

	if len(r.Name) > maxNameLength {
		return fmt.Errorf("name too long for %q: %d characters", r.Name, len(r.Name))
	}

	for i, alias := range r.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("empty alias at position %d for %q", i, r.Name)
		}
	}

	return nil
}

// ValidateDataset performs the load-time validation of the whole dataset
func (v *DataValidatorImpl) ValidateDataset(records []entities.DrugRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no drug records found")
	}

	for i := range records {
		if err := v.ValidateRecord(&records[i]); err != nil {
			return fmt.Errorf("invalid record at position %d: %w", i, err)
		}
	}

	return nil
}

// ReportDataQuality inspects the dataset for issues that do not prevent loading
func (v *DataValidatorImpl) ReportDataQuality(records []entities.DrugRecord) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateNames:               []string{},
		ShadowedKeys:                 []string{},
		DanglingInteractionNames:     []string{},
		RecordsWithoutConditionNames: []string{},
	}

	// Check 1: duplicate names, and aliases already claimed by an earlier record
	owner := make(map[string]int)
	for i, rec := range records {
		key := strings.ToLower(rec.Name)
		if first, exists := owner[key]; !exists {
			owner[key] = i
		} else if first != i {
			report.DuplicateNames = append(report.DuplicateNames, rec.Name)
		}

		for _, alias := range rec.Aliases {
			key := strings.ToLower(alias)
			if first, exists := owner[key]; !exists {
				owner[key] = i
			} else if first != i {
				report.ShadowedKeys = append(report.ShadowedKeys, alias)
			}
		}
	}

	// Check 2: interactions naming no record (matched exactly, as the checker does)
	names := make(map[string]bool, len(records))
	for _, rec := range records {
		names[rec.Name] = true
	}
	for _, rec := range records {
		for _, other := range rec.Interactions {
			if !names[other] {
				report.DanglingInteractions++
				if len(report.DanglingInteractionNames) < 10 {
					report.DanglingInteractionNames = append(report.DanglingInteractionNames, other)
				}
			}
		}
	}

	// Check 3: alternatives that cannot be looked up
	for _, rec := range records {
		for _, alt := range rec.Alternatives {
			if _, exists := owner[strings.ToLower(alt)]; !exists {
				report.UnknownAlternatives++
			}
		}
	}

	// Check 4: records without condition text (store first 10 names)
	for _, rec := range records {
		if strings.TrimSpace(rec.UsedFor) == "" {
			report.RecordsWithoutCondition++
			if len(report.RecordsWithoutConditionNames) < 10 {
				report.RecordsWithoutConditionNames = append(report.RecordsWithoutConditionNames, rec.Name)
			}
		}
	}

	// Check 5: records without dosage
	for _, rec := range records {
		if strings.TrimSpace(rec.Dosage) == "" {
			report.RecordsWithoutDosage++
		}
	}

	return report
}

// ValidateInput validates a lookup query (drug name or condition text): non-empty
// valid UTF-8 without control characters, at most maxQueryLength bytes.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > maxQueryLength {
		return fmt.Errorf("input too long: maximum %d characters", maxQueryLength)
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input is not valid UTF-8")
	}

	if controlCharRegex.MatchString(input) {
		return fmt.Errorf("input contains control characters")
	}

	return nil
}

// ValidateFilename validates the name of an uploaded file, after BaseFilename
func (v *DataValidatorImpl) ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("file name cannot be empty")
	}

	if len(filename) > maxFilenameLength {
		return fmt.Errorf("file name too long: maximum %d characters", maxFilenameLength)
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("file name contains invalid characters")
	}

	return nil
}

// BaseFilename returns the part of a client supplied file name after the last
// '/' or '\', so Windows paths reduce to their file name on any platform.
func BaseFilename(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
