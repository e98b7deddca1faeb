package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/giygas/drugcatalog-api/catalog"
	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/logging"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/giygas/drugcatalog-api/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxInteractionDrugs = 50

// NameInput is the input of every tool keyed by a drug name or alias
type NameInput struct {
	Name string `json:"name"`
}

// DrugsInput is the input of the check_interactions tool
type DrugsInput struct {
	Drugs []string `json:"drugs"`
}

// ConditionInput is the input of the recommended_by_condition tool
type ConditionInput struct {
	Condition string `json:"condition"`
}

// FilenameInput is the input of the identify_by_filename tool
type FilenameInput struct {
	Filename string `json:"filename"`
}

// InteractionsResult carries either the interacting pairs or the no-interaction message
type InteractionsResult struct {
	Interactions []string `json:"interactions"`
	Message      string   `json:"message,omitempty"`
}

func (s *Server) registerTools() {
	nameSchema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {
				"type": "string",
				"description": "Drug name or alias, matched case-insensitively."
			}
		},
		"required": ["name"]
	}`)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "get_drug_info",
			Description: "Return the full catalog record of a drug: aliases, interactions, alternatives, dosage, duration and the conditions it is used for.",
			InputSchema: nameSchema,
		},
		s.handleGetDrugInfo,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "check_interactions",
			Description: "Report every interacting pair among the given drugs. Unknown names are ignored; at least two must be known.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"drugs": {
						"type": "array",
						"items": {"type": "string"},
						"maxItems": 50,
						"description": "Drug names or aliases to check against each other."
					}
				},
				"required": ["drugs"]
			}`),
		},
		s.handleCheckInteractions,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "suggest_alternatives",
			Description: "List the substitutes recorded for a drug. The list may be empty.",
			InputSchema: nameSchema,
		},
		s.handleSuggestAlternatives,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "dosage_duration",
			Description: "Return the usual dosage and treatment duration of a drug. Missing values are reported as 'Not specified'.",
			InputSchema: nameSchema,
		},
		s.handleDosageDuration,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "recommended_by_condition",
			Description: "List the drugs whose indications mention the condition (case-insensitive substring match).",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"condition": {
						"type": "string",
						"description": "Condition or symptom, for example 'fever'."
					}
				},
				"required": ["condition"]
			}`),
		},
		s.handleRecommendedByCondition,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "identify_by_filename",
			Description: "Guess a drug from an image file name by looking for a known drug name inside it. The image itself is not analysed.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"filename": {
						"type": "string",
						"description": "File name of the medicine photo, for example 'my_paracetamol_photo.jpg'."
					}
				},
				"required": ["filename"]
			}`),
		},
		s.handleIdentifyByFilename,
	)
}

// validate rejects input the HTTP handlers would reject
func (s *Server) validate(op, input string) error {
	if err := s.validator.ValidateInput(input); err != nil {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// lookupError records the outcome of a failed lookup and turns it into a tool error
func lookupError(op string, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		metrics.RecordLookup(op, metrics.OutcomeNotFound)
		return errors.New(notFoundMessage)
	case errors.Is(err, catalog.ErrInvalidRequest):
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		return errors.New("At least two valid known drugs are required")
	default:
		logging.Error("MCP catalog lookup failed", "operation", op, "error", err)
		return errors.New("internal error")
	}
}

func (s *Server) handleGetDrugInfo(ctx context.Context, req *mcp.CallToolRequest, input NameInput) (*mcp.CallToolResult, entities.DrugRecord, error) {
	const op = "drug_info"

	if err := s.validate(op, input.Name); err != nil {
		return nil, entities.DrugRecord{}, err
	}

	rec, err := s.store.Resolve(input.Name)
	if err != nil {
		return nil, entities.DrugRecord{}, lookupError(op, err, "Drug not found")
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	return nil, rec, nil
}

func (s *Server) handleCheckInteractions(ctx context.Context, req *mcp.CallToolRequest, input DrugsInput) (*mcp.CallToolResult, InteractionsResult, error) {
	const op = "check_interactions"

	if len(input.Drugs) > maxInteractionDrugs {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		return nil, InteractionsResult{}, fmt.Errorf("too many drugs: maximum %d allowed", maxInteractionDrugs)
	}

	names := make([]string, 0, len(input.Drugs))
	for _, name := range input.Drugs {
		if err := s.validator.ValidateInput(name); err != nil {
			logging.Debug("Dropping invalid drug name", "name", name, "error", err)
			continue
		}
		names = append(names, name)
	}

	interactions, err := s.store.CheckInteractions(names)
	if err != nil {
		return nil, InteractionsResult{}, lookupError(op, err, "Drug not found")
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	if len(interactions) == 0 {
		return nil, InteractionsResult{Interactions: []string{}, Message: "No interactions found"}, nil
	}
	return nil, InteractionsResult{Interactions: interactions}, nil
}

func (s *Server) handleSuggestAlternatives(ctx context.Context, req *mcp.CallToolRequest, input NameInput) (*mcp.CallToolResult, entities.AlternativesResponse, error) {
	const op = "suggest_alternatives"

	if err := s.validate(op, input.Name); err != nil {
		return nil, entities.AlternativesResponse{}, err
	}

	alternatives, err := s.store.Alternatives(input.Name)
	if err != nil {
		return nil, entities.AlternativesResponse{}, lookupError(op, err, "Drug not found")
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	return nil, entities.AlternativesResponse{SuggestedAlternatives: alternatives}, nil
}

func (s *Server) handleDosageDuration(ctx context.Context, req *mcp.CallToolRequest, input NameInput) (*mcp.CallToolResult, entities.DosageDuration, error) {
	const op = "dosage_duration"

	if err := s.validate(op, input.Name); err != nil {
		return nil, entities.DosageDuration{}, err
	}

	result, err := s.store.DosageDuration(input.Name)
	if err != nil {
		return nil, entities.DosageDuration{}, lookupError(op, err, "Drug not found")
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	return nil, result, nil
}

func (s *Server) handleRecommendedByCondition(ctx context.Context, req *mcp.CallToolRequest, input ConditionInput) (*mcp.CallToolResult, entities.RecommendationsResponse, error) {
	const op = "recommended_by_condition"

	if err := s.validate(op, input.Condition); err != nil {
		return nil, entities.RecommendationsResponse{}, err
	}

	drugs, err := s.store.RecommendByCondition(input.Condition)
	if err != nil {
		return nil, entities.RecommendationsResponse{}, lookupError(op, err, "No recommended drugs found for this condition")
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	return nil, entities.RecommendationsResponse{RecommendedDrugs: drugs}, nil
}

func (s *Server) handleIdentifyByFilename(ctx context.Context, req *mcp.CallToolRequest, input FilenameInput) (*mcp.CallToolResult, entities.IdentificationResponse, error) {
	const op = "identify_medicine_image"

	filename := validation.BaseFilename(input.Filename)
	if err := s.validator.ValidateFilename(filename); err != nil {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		return nil, entities.IdentificationResponse{}, fmt.Errorf("invalid filename: %w", err)
	}

	identified := s.store.IdentifyByFilename(filename)
	outcome := metrics.OutcomeFound
	if identified == catalog.UnknownDrug {
		outcome = metrics.OutcomeNotFound
	}
	metrics.RecordLookup(op, outcome)

	return nil, entities.IdentificationResponse{IdentifiedDrug: identified}, nil
}
