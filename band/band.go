// Package band defines named frequency ranges for resonance sweeps.
//
// A band table maps human-readable labels to {start, end} frequency
// ranges in Hz. Tables can be constructed in code or loaded from a
// YAML file:
//
//	bands:
//	  - label: "25k"
//	    start: 20000
//	    end: 30000
//	  - label: "40k"
//	    start: 33000
//	    end: 46000
//
// A loaded table is validated once; the ranges themselves are plain
// values and stay immutable for the duration of a sweep.
package band

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Errors returned by band table construction and lookup.
var (
	ErrEmptyLabel     = errors.New("band: empty label")
	ErrDuplicateLabel = errors.New("band: duplicate label")
	ErrInvalidRange   = errors.New("band: end frequency must be greater than start frequency")
	ErrUnknownBand    = errors.New("band: unknown band")
	ErrEmptyTable     = errors.New("band: table contains no bands")
)

// Range is a named frequency range in Hz.
type Range struct {
	Label string `yaml:"label" json:"label"`
	Start uint64 `yaml:"start" json:"start"`
	End   uint64 `yaml:"end" json:"end"`
}

// Validate checks that the range has a label and a positive width.
func (r Range) Validate() error {
	if r.Label == "" {
		return ErrEmptyLabel
	}

	if r.End <= r.Start {
		return fmt.Errorf("%w: %q [%d, %d]", ErrInvalidRange, r.Label, r.Start, r.End)
	}

	return nil
}

// Width returns the span of the range in Hz.
func (r Range) Width() uint64 {
	if r.End <= r.Start {
		return 0
	}

	return r.End - r.Start
}

// Table is an ordered set of named bands.
type Table struct {
	Bands []Range `yaml:"bands"`
}

// DefaultTable returns the built-in band table covering common
// ultrasonic transducer families.
func DefaultTable() Table {
	return Table{Bands: []Range{
		{Label: "25k", Start: 20000, End: 30000},
		{Label: "28k", Start: 24000, End: 33000},
		{Label: "40k", Start: 33000, End: 46000},
		{Label: "full", Start: 20000, End: 46000},
	}}
}

// Validate checks every range and rejects duplicate labels.
func (t Table) Validate() error {
	if len(t.Bands) == 0 {
		return ErrEmptyTable
	}

	seen := make(map[string]struct{}, len(t.Bands))

	for _, r := range t.Bands {
		if err := r.Validate(); err != nil {
			return err
		}

		if _, ok := seen[r.Label]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, r.Label)
		}

		seen[r.Label] = struct{}{}
	}

	return nil
}

// Lookup returns the range with the given label.
func (t Table) Lookup(label string) (Range, error) {
	for _, r := range t.Bands {
		if r.Label == label {
			return r, nil
		}
	}

	return Range{}, fmt.Errorf("%w: %q", ErrUnknownBand, label)
}

// Parse decodes and validates a YAML band table.
func Parse(data []byte) (Table, error) {
	var t Table

	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("band: failed to parse table: %w", err)
	}

	if err := t.Validate(); err != nil {
		return Table{}, err
	}

	return t, nil
}

// LoadFile reads and validates a YAML band table from disk.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("band: failed to read %s: %w", path, err)
	}

	return Parse(data)
}
