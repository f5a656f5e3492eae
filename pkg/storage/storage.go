// Package storage persists characters between sessions. Only properties
// that are not Calculated are stored.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"lumen/pkg/shared/properties"
)

// ErrNotFound is returned by Load for a character that was never saved.
var ErrNotFound = errors.New("character not found")

// Store loads and saves character records.
type Store interface {
	Load(ctx context.Context, name string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Close() error
}

// Record is one saved character.
type Record struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
	SavedAt    time.Time  `json:"savedAt"`
}

// Property is one saved property value. Exactly one of Int, Float and Text
// is meaningful, as selected by Kind.
type Property struct {
	ID    uint16  `json:"id"`
	Kind  string  `json:"kind"`
	Int   int32   `json:"int,omitempty"`
	Float float32 `json:"float,omitempty"`
	Text  string  `json:"text,omitempty"`
}

// NewRecord builds a record from property values, ordered by id.
func NewRecord(name string, values map[uint16]properties.Value) *Record {
	rec := &Record{Name: name, Properties: make([]Property, 0, len(values))}
	for id, v := range values {
		rec.Properties = append(rec.Properties, Property{
			ID:    id,
			Kind:  v.Kind().String(),
			Int:   v.Int(),
			Float: v.Float(),
			Text:  v.Text(),
		})
	}
	slices.SortFunc(rec.Properties, func(a, b Property) int { return int(a.ID) - int(b.ID) })
	return rec
}

// Values converts the record back into property values.
func (r *Record) Values() (map[uint16]properties.Value, error) {
	values := make(map[uint16]properties.Value, len(r.Properties))
	for _, p := range r.Properties {
		v, err := p.Value()
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", r.Name, err)
		}
		values[p.ID] = v
	}
	return values, nil
}

func (p Property) Value() (properties.Value, error) {
	k, err := properties.ParseKind(p.Kind)
	if err != nil {
		return properties.Value{}, fmt.Errorf("property %d: %w", p.ID, err)
	}
	switch k {
	case properties.KindInteger:
		return properties.IntValue(p.Int), nil
	case properties.KindFloat:
		return properties.FloatValue(p.Float), nil
	default:
		return properties.StringValue(p.Text), nil
	}
}

// ValidName reports whether name can be used as a storage key.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
