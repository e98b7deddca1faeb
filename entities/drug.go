// Package entities holds the data types shared across the drug catalog API.
package entities

import "encoding/json"

// NotSpecified is projected for dosage and duration when a record leaves them empty
const NotSpecified = "Not specified"

// DrugRecord is one drug's static attribute bundle as read from the dataset file.
type DrugRecord struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	Interactions []string `json:"interactions,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Dosage       string   `json:"dosage,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	UsedFor      string   `json:"used_for,omitempty"`
}

// UnmarshalJSON accepts "condition" as a fallback key for "used_for".
func (d *DrugRecord) UnmarshalJSON(b []byte) error {
	type plain DrugRecord
	var aux struct {
		plain
		Condition string `json:"condition"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*d = DrugRecord(aux.plain)
	if d.UsedFor == "" {
		d.UsedFor = aux.Condition
	}
	return nil
}

// DosageDuration is the projection returned by the dosage_duration endpoint
type DosageDuration struct {
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
}

// DrugList is the request body of check_interactions
type DrugList struct {
	Drugs []string `json:"drugs"`
}

// InteractionsResponse is returned when at least one interaction was found
type InteractionsResponse struct {
	Interactions []string `json:"interactions"`
}

// MessageResponse carries a plain informational message
type MessageResponse struct {
	Message string `json:"message"`
}

type AlternativesResponse struct {
	SuggestedAlternatives []string `json:"suggested_alternatives"`
}

type RecommendationsResponse struct {
	RecommendedDrugs []string `json:"recommended_drugs"`
}

type IdentificationResponse struct {
	IdentifiedDrug string `json:"identified_drug"`
}
