package catalog

import (
	"fmt"
	"strings"

	"github.com/giygas/drugcatalog-api/entities"
)

// position returns the index of the record matching name, if any
func (c *Catalog) position(name string) (int, bool) {
	pos, ok := c.index[normalizeQuery(name)]
	return pos, ok
}

// Resolve returns the first record whose name or alias equals name, ignoring case
// and surrounding whitespace.
func (c *Catalog) Resolve(name string) (entities.DrugRecord, error) {
	pos, ok := c.position(name)
	if !ok {
		return entities.DrugRecord{}, fmt.Errorf("drug %q: %w", strings.TrimSpace(name), ErrNotFound)
	}
	return c.records[pos], nil
}

// CheckInteractions resolves every name, drops the unknown ones, and reports each
// interacting pair of the resolved list. Duplicated input is not collapsed, so the
// same pair can be reported more than once.
func (c *Catalog) CheckInteractions(names []string) ([]string, error) {
	found := make([]int, 0, len(names))
	for _, name := range names {
		if pos, ok := c.position(name); ok {
			found = append(found, pos)
		}
	}

	if len(found) < 2 {
		return nil, fmt.Errorf("at least two valid known drugs are required, got %d: %w", len(found), ErrInvalidRequest)
	}

	interactions := []string{}
	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			a, b := found[i], found[j]
			nameA, nameB := c.records[a].Name, c.records[b].Name

			_, aListsB := c.interactions[a][nameB]
			_, bListsA := c.interactions[b][nameA]
			if aListsB || bListsA {
				interactions = append(interactions, fmt.Sprintf("%s interacts with %s", nameA, nameB))
			}
		}
	}

	return interactions, nil
}

// Alternatives returns the suggested substitutes of a drug, never nil
func (c *Catalog) Alternatives(name string) ([]string, error) {
	rec, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	if rec.Alternatives == nil {
		return []string{}, nil
	}
	return rec.Alternatives, nil
}

// DosageDuration returns the dosage and duration of a drug with defaults applied
func (c *Catalog) DosageDuration(name string) (entities.DosageDuration, error) {
	rec, err := c.Resolve(name)
	if err != nil {
		return entities.DosageDuration{}, err
	}

	result := entities.DosageDuration{
		Dosage:   rec.Dosage,
		Duration: rec.Duration,
	}
	if result.Dosage == "" {
		result.Dosage = entities.NotSpecified
	}
	if result.Duration == "" {
		result.Duration = entities.NotSpecified
	}
	return result, nil
}

// RecommendByCondition returns the names of the records whose condition text
// contains condition, case-insensitively, in dataset order.
func (c *Catalog) RecommendByCondition(condition string) ([]string, error) {
	needle := strings.ToLower(condition)

	var matched []string
	for i, text := range c.conditions {
		if strings.Contains(text, needle) {
			matched = append(matched, c.records[i].Name)
		}
	}

	if len(matched) == 0 {
		return nil, fmt.Errorf("condition %q: %w", condition, ErrNotFound)
	}
	return matched, nil
}
