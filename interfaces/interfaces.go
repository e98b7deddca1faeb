// Package interfaces defines core abstractions for the drug catalog API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/drugcatalog-api/entities"
)

// DataQualityReport provides a summary of data quality issues found at load time
type DataQualityReport struct {
	DuplicateNames               []string // Names appearing on more than one record
	ShadowedKeys                 []string // Aliases already claimed by an earlier record
	DanglingInteractions         int      // Interaction entries naming no record in the catalog
	DanglingInteractionNames     []string // First 10 dangling names
	UnknownAlternatives          int      // Alternative entries naming no record in the catalog
	RecordsWithoutCondition      int
	RecordsWithoutConditionNames []string // First 10 names
	RecordsWithoutDosage         int
}

// DrugStore defines the read-only contract of the in-memory drug catalog.
// Implementations are immutable once built and safe for concurrent readers.
type DrugStore interface {
	// Data retrieval methods
	Records() []entities.DrugRecord
	Count() int
	Checksum() string
	LoadedAt() time.Time

	// Lookup operations
	Resolve(name string) (entities.DrugRecord, error)
	CheckInteractions(names []string) ([]string, error)
	Alternatives(name string) ([]string, error)
	DosageDuration(name string) (entities.DosageDuration, error)
	RecommendByCondition(condition string) ([]string, error)
	IdentifyByFilename(filename string) string
}

// DatasetSource defines the contract for reading the static dataset file.
type DatasetSource interface {
	// Load reads, decodes and validates all records, returning them with the content checksum
	Load() ([]entities.DrugRecord, string, error)

	// Checksum returns the checksum of the dataset as it currently is on disk
	Checksum() (string, error)

	// Path returns the location of the dataset
	Path() string
}

// DriftReporter exposes whether the dataset on disk has diverged from the loaded catalog.
type DriftReporter interface {
	DatasetDrifted() bool
	LastDriftCheck() time.Time
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Lookup endpoints
	Root(w http.ResponseWriter, r *http.Request)
	GetDrugInfo(w http.ResponseWriter, r *http.Request)
	CheckInteractions(w http.ResponseWriter, r *http.Request)
	SuggestAlternatives(w http.ResponseWriter, r *http.Request)
	DosageDuration(w http.ResponseWriter, r *http.Request)
	RecommendedByCondition(w http.ResponseWriter, r *http.Request)
	IdentifyMedicineImage(w http.ResponseWriter, r *http.Request)
	ServePagedDrugs(w http.ResponseWriter, r *http.Request)

	// Service status for load balancers and monitoring
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status, its details and the HTTP status to use
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateRecord checks if a single drug record is valid
	ValidateRecord(r *entities.DrugRecord) error

	// ValidateDataset performs the load-time validation of the whole dataset
	ValidateDataset(records []entities.DrugRecord) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(records []entities.DrugRecord) *DataQualityReport

	// ValidateInput validates lookup queries (drug names, conditions)
	ValidateInput(input string) error

	// ValidateFilename validates uploaded file names with directories already stripped
	ValidateFilename(filename string) error
}
