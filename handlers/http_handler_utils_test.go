package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/drugcatalog-api/catalog"
	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/giygas/drugcatalog-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent test data across all tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateRecords returns a small realistic dataset
func (f *TestDataFactory) CreateRecords() []entities.DrugRecord {
	return []entities.DrugRecord{
		{
			Name:         "Paracetamol",
			Aliases:      []string{"Acetaminophen", "Crocin"},
			Interactions: []string{"Warfarin"},
			Alternatives: []string{"Ibuprofen"},
			Dosage:       "500mg",
			Duration:     "5 days",
			UsedFor:      "Fever, headache",
		},
		{
			Name:         "Ibuprofen",
			Aliases:      []string{"Brufen"},
			Interactions: []string{"Aspirin"},
			Alternatives: []string{"Paracetamol", "Naproxen"},
			Dosage:       "400mg",
			UsedFor:      "Pain, fever",
		},
		{
			Name:         "Aspirin",
			Interactions: []string{},
			UsedFor:      "Pain, heart attack prevention",
		},
		{
			Name:    "Warfarin",
			Dosage:  "5mg",
			UsedFor: "Blood clots",
		},
	}
}

// CreateNumberedRecords creates count records named Drug 1..count
func (f *TestDataFactory) CreateNumberedRecords(count int) []entities.DrugRecord {
	records := make([]entities.DrugRecord, count)
	for i := range records {
		records[i] = entities.DrugRecord{Name: fmt.Sprintf("Drug %d", i+1)}
	}
	return records
}

// CreateCatalog builds a real catalog from the factory dataset
func (f *TestDataFactory) CreateCatalog() *catalog.Catalog {
	return catalog.New(f.CreateRecords(), "4f2a9c1e77d05b3a")
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDrugStore is a DrugStore returning canned results and recording calls
type MockDrugStore struct {
	records      []entities.DrugRecord
	checksum     string
	resolveErr   error
	lookupErr    error
	interactions []string
	identified   string

	resolveCalled           bool
	checkInteractionsCalled bool
	checkInteractionsNames  []string
}

var _ interfaces.DrugStore = (*MockDrugStore)(nil)

func (m *MockDrugStore) Records() []entities.DrugRecord { return m.records }
func (m *MockDrugStore) Count() int                     { return len(m.records) }
func (m *MockDrugStore) Checksum() string               { return m.checksum }
func (m *MockDrugStore) LoadedAt() time.Time            { return time.Time{} }

func (m *MockDrugStore) Resolve(name string) (entities.DrugRecord, error) {
	m.resolveCalled = true
	if m.resolveErr != nil {
		return entities.DrugRecord{}, m.resolveErr
	}
	for _, rec := range m.records {
		if strings.EqualFold(rec.Name, strings.TrimSpace(name)) {
			return rec, nil
		}
	}
	return entities.DrugRecord{}, fmt.Errorf("drug %q: %w", name, catalog.ErrNotFound)
}

func (m *MockDrugStore) CheckInteractions(names []string) ([]string, error) {
	m.checkInteractionsCalled = true
	m.checkInteractionsNames = names
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.interactions, nil
}

func (m *MockDrugStore) Alternatives(name string) ([]string, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	rec, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	return rec.Alternatives, nil
}

func (m *MockDrugStore) DosageDuration(name string) (entities.DosageDuration, error) {
	if m.lookupErr != nil {
		return entities.DosageDuration{}, m.lookupErr
	}
	rec, err := m.Resolve(name)
	if err != nil {
		return entities.DosageDuration{}, err
	}
	return entities.DosageDuration{Dosage: rec.Dosage, Duration: rec.Duration}, nil
}

func (m *MockDrugStore) RecommendByCondition(condition string) ([]string, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return []string{"Mock"}, nil
}

func (m *MockDrugStore) IdentifyByFilename(filename string) string {
	return m.identified
}

// MockDrugStoreBuilder provides fluent interface for building mock drug stores
type MockDrugStoreBuilder struct {
	mock *MockDrugStore
}

func NewMockDrugStoreBuilder() *MockDrugStoreBuilder {
	return &MockDrugStoreBuilder{
		mock: &MockDrugStore{
			records:    []entities.DrugRecord{},
			checksum:   "mockchecksum",
			identified: catalog.UnknownDrug,
		},
	}
}

func (b *MockDrugStoreBuilder) WithRecords(records []entities.DrugRecord) *MockDrugStoreBuilder {
	b.mock.records = records
	return b
}

func (b *MockDrugStoreBuilder) WithChecksum(checksum string) *MockDrugStoreBuilder {
	b.mock.checksum = checksum
	return b
}

func (b *MockDrugStoreBuilder) WithResolveError(err error) *MockDrugStoreBuilder {
	b.mock.resolveErr = err
	return b
}

func (b *MockDrugStoreBuilder) WithLookupError(err error) *MockDrugStoreBuilder {
	b.mock.lookupErr = err
	return b
}

func (b *MockDrugStoreBuilder) WithInteractions(interactions []string) *MockDrugStoreBuilder {
	b.mock.interactions = interactions
	return b
}

func (b *MockDrugStoreBuilder) WithIdentified(name string) *MockDrugStoreBuilder {
	b.mock.identified = name
	return b
}

func (b *MockDrugStoreBuilder) Build() *MockDrugStore {
	return b.mock
}

// MockDataValidator accepts everything unless configured to fail
type MockDataValidator struct {
	inputErr    error
	filenameErr error
}

func (m *MockDataValidator) ValidateRecord(r *entities.DrugRecord) error         { return nil }
func (m *MockDataValidator) ValidateDataset(records []entities.DrugRecord) error { return nil }
func (m *MockDataValidator) ValidateInput(input string) error                    { return m.inputErr }
func (m *MockDataValidator) ValidateFilename(filename string) error              { return m.filenameErr }
func (m *MockDataValidator) ReportDataQuality(records []entities.DrugRecord) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{}}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.inputErr = err
	return b
}

func (b *MockDataValidatorBuilder) WithFilenameError(err error) *MockDataValidatorBuilder {
	b.mock.filenameErr = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// MockHealthChecker returns a fixed health result
type MockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.httpStatus
}

var errMockValidation = errors.New("input contains invalid characters")

// ============================================================================
// REQUEST HELPERS
// ============================================================================

// newRealHandler wires a handler over the factory catalog and the real validator
func newRealHandler() *HTTPHandlerImpl {
	store := NewTestDataFactory().CreateCatalog()
	checker := &MockHealthChecker{status: "healthy", data: map[string]any{}, httpStatus: http.StatusOK}
	return NewHTTPHandler(store, validation.NewDataValidator(), checker, 1<<20).(*HTTPHandlerImpl)
}

// withURLParam attaches a chi URL parameter to the request
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newUploadRequest builds a multipart request with one part named field
func newUploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/identify_medicine_image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// decodeBody unmarshals the recorder body into v
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to unmarshal JSON %q: %v", rr.Body.String(), err)
	}
}

// assertErrorResponse checks the status and the JSON error body
func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedCode int, expectedMessage string) {
	t.Helper()

	if rr.Code != expectedCode {
		t.Fatalf("Expected status %d, got %d (%s)", expectedCode, rr.Code, rr.Body.String())
	}

	var body map[string]any
	decodeBody(t, rr, &body)

	if body["error"] != http.StatusText(expectedCode) {
		t.Errorf("Expected error %q, got %v", http.StatusText(expectedCode), body["error"])
	}
	if code, _ := body["code"].(float64); int(code) != expectedCode {
		t.Errorf("Expected code %d, got %v", expectedCode, body["code"])
	}
	if expectedMessage != "" && !strings.Contains(fmt.Sprint(body["message"]), expectedMessage) {
		t.Errorf("Expected message containing %q, got %v", expectedMessage, body["message"])
	}
}
