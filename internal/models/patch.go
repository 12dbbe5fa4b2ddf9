package models

import (
	"fmt"
	"strings"
)

// Patch is the set of columns an edit explicitly supplies. A column that is
// absent is left untouched; a column present with a nil value is set to NULL.
type Patch struct {
	values map[Column]interface{}
}

// NewPatch returns an empty patch.
func NewPatch() *Patch {
	return &Patch{values: make(map[Column]interface{})}
}

// Set supplies a value for col. Nil pointers are treated as Clear.
func (p *Patch) Set(col Column, value interface{}) *Patch {
	if p.values == nil {
		p.values = make(map[Column]interface{})
	}
	p.values[col] = normalize(value)
	return p
}

// Clear sets col to NULL.
func (p *Patch) Clear(col Column) *Patch {
	return p.Set(col, nil)
}

// Has reports whether col was supplied.
func (p *Patch) Has(col Column) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[col]
	return ok
}

// Get returns the supplied value for col.
func (p *Patch) Get(col Column) (interface{}, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[col]
	return v, ok
}

// Len is the number of supplied columns.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// IsEmpty reports a patch with nothing to write.
func (p *Patch) IsEmpty() bool {
	return p.Len() == 0
}

// Columns returns the supplied columns in a stable order.
func (p *Patch) Columns() []Column {
	if p == nil {
		return nil
	}
	cols := make([]Column, 0, len(p.values))
	for _, c := range patchOrder {
		if _, ok := p.values[c]; ok {
			cols = append(cols, c)
		}
	}
	// unknown columns go last so Validate can name them
	for c := range p.values {
		if !c.Patchable() {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate rejects store-owned columns, values of the wrong kind, clearing a
// required column and statuses outside the closed set.
func (p *Patch) Validate() error {
	for _, col := range p.Columns() {
		if !col.Patchable() {
			return fmt.Errorf("column %q cannot be patched", col)
		}
		v := p.values[col]
		if v == nil {
			if col.Required() {
				return fmt.Errorf("column %q cannot be cleared", col)
			}
			continue
		}
		switch col.Kind() {
		case KindText:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("column %q expects text, got %T", col, v)
			}
			if col.Required() && strings.TrimSpace(s) == "" {
				return fmt.Errorf("column %q cannot be blank", col)
			}
			if col == ColStatus && !Status(s).Valid() {
				return fmt.Errorf("unknown status %q", s)
			}
		case KindInteger:
			if _, ok := v.(int64); !ok {
				return fmt.Errorf("column %q expects an integer, got %T", col, v)
			}
		case KindBlob:
			if _, ok := v.([]byte); !ok {
				return fmt.Errorf("column %q expects bytes, got %T", col, v)
			}
		}
	}
	return nil
}

func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case Status:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case *int:
		if v == nil {
			return nil
		}
		return int64(*v)
	case []byte:
		if v == nil {
			return nil
		}
		return v
	}
	return value
}
