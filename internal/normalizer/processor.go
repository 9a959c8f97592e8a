// Package normalizer cleans extracted fields and assembles records into datasets.
package normalizer

import (
	"fmt"

	"regscrape/internal/models"
)

// Schema is what a source promises about its records.
type Schema struct {
	Required []string
	Rules    []Rule
}

// Processor validates, assembles and cleans a run's records.
type Processor struct {
	schema      Schema
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a processor for the schema.
func NewProcessor(schema Schema) *Processor {
	return &Processor{
		schema:      schema,
		validator:   NewValidator(schema.Required),
		transformer: NewTransformer(schema.Rules),
	}
}

// Process turns records into the exported dataset.
func (p *Processor) Process(records []*models.Record) (*models.Dataset, error) {
	// 1. Validate the columns
	if err := p.validator.Validate(records); err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}

	// 2. Assemble, seeding headers for an empty run
	ds := Assemble(records)
	if len(records) == 0 {
		for _, col := range p.schema.Required {
			name := NormalizeColumnName(col)
			if ds.Index(name) < 0 {
				ds.Columns = append(ds.Columns, name)
			}
		}
	}

	// 3. Apply the column rules
	return p.transformer.Transform(ds), nil
}
