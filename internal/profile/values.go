package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"jobvault/internal/models"
)

// maxDepth bounds object nesting for schemas that slip past the name guard.
const maxDepth = 32

// DefaultValue computes the initial value of a field: a non-blank
// default_value wins, otherwise the type decides. Object fields recurse
// into their sub-fields; a sub-field reusing the name of an enclosing field
// is treated as a leaf so malformed schemas cannot recurse forever.
func DefaultValue(field models.FieldSchema, now time.Time) interface{} {
	return defaultValue(field, now, nil)
}

func defaultValue(field models.FieldSchema, now time.Time, ancestors []string) interface{} {
	if field.DefaultValue != nil && strings.TrimSpace(fmt.Sprint(field.DefaultValue)) != "" {
		return field.DefaultValue
	}

	switch field.Type {
	case models.FieldYearMonth:
		return yearMonth(now.Year(), int(now.Month()))
	case models.FieldEnum:
		if len(field.Options) > 0 {
			return field.Options[0]
		}
		return ""
	case models.FieldString, models.FieldMultiline:
		return ""
	case models.FieldNumber:
		return 0
	case models.FieldObject:
		if recursing(field.Name, ancestors) {
			return ""
		}
		inner := append(ancestors, field.Name)
		out := make(map[string]interface{}, len(field.Fields))
		for _, sub := range field.Fields {
			if sub.Name == "" {
				continue
			}
			out[sub.Name] = defaultValue(sub, now, inner)
		}
		return out
	}
	return ""
}

func recursing(name string, ancestors []string) bool {
	if len(ancestors) >= maxDepth {
		return true
	}
	for _, a := range ancestors {
		if a == name {
			return true
		}
	}
	return false
}

func yearMonth(year, month int) map[string]interface{} {
	return map[string]interface{}{"year": year, "month": month}
}

// DefaultItem builds one unselected item from field defaults. Repeating
// fields start as a one element list.
func DefaultItem(section models.SectionSchema, now time.Time) models.Item {
	item := make(models.Item, len(section.Fields)+1)
	for _, f := range section.NamedFields() {
		v := DefaultValue(f, now)
		if f.AllowMultiple {
			item[f.Name] = []interface{}{v}
		} else {
			item[f.Name] = v
		}
	}
	item[models.SelectedDefaultKey] = false
	return item
}

// BuildSectionPayload returns the items an editor starts with: the persisted
// items, or one default item when there are none. Sections that do not allow
// multiple items keep only the first one; the rest would be dropped on the
// next save.
func BuildSectionPayload(section models.SectionSchema, cfg *models.SectionConfig, now time.Time) []models.Item {
	var persisted []models.Item
	if cfg != nil {
		persisted = cfg.Items
	}
	if len(persisted) == 0 {
		return []models.Item{DefaultItem(section, now)}
	}
	if !section.AllowMultiple {
		persisted = persisted[:1]
	}

	out := make([]models.Item, len(persisted))
	for i, it := range persisted {
		out[i] = NormalizeItem(section, it, now)
	}
	return out
}

// ReadValue coerces raw input to the shape of field: text stays text,
// numbers become ints (blank or invalid input is 0), year_month becomes
// {year, month} ints and objects recurse.
func ReadValue(field models.FieldSchema, raw interface{}, now time.Time) interface{} {
	return readValue(field, raw, now, nil)
}

func readValue(field models.FieldSchema, raw interface{}, now time.Time, ancestors []string) interface{} {
	switch field.Type {
	case models.FieldString, models.FieldMultiline, models.FieldEnum:
		return text(raw)
	case models.FieldNumber:
		n, ok := toInt(raw)
		if !ok {
			return 0
		}
		return n
	case models.FieldYearMonth:
		m, _ := raw.(map[string]interface{})
		year, ok := toInt(m["year"])
		if !ok {
			year = now.Year()
		}
		month, ok := toInt(m["month"])
		if !ok || month < 1 || month > 12 {
			month = int(now.Month())
		}
		return yearMonth(year, month)
	case models.FieldObject:
		if recursing(field.Name, ancestors) {
			return text(raw)
		}
		inner := append(ancestors, field.Name)
		m, _ := raw.(map[string]interface{})
		out := make(map[string]interface{}, len(field.Fields))
		for _, sub := range field.Fields {
			if sub.Name == "" {
				continue
			}
			v, ok := m[sub.Name]
			if !ok {
				out[sub.Name] = defaultValue(sub, now, inner)
				continue
			}
			out[sub.Name] = readValue(sub, v, now, inner)
		}
		return out
	}
	return text(raw)
}

// NormalizeItem reads every field of it through ReadValue, fills missing
// fields with defaults and drops keys the schema does not declare.
func NormalizeItem(section models.SectionSchema, it models.Item, now time.Time) models.Item {
	out := make(models.Item, len(section.Fields)+1)
	for _, f := range section.NamedFields() {
		raw, present := it[f.Name]
		if f.AllowMultiple {
			list, isList := raw.([]interface{})
			switch {
			case !present || raw == nil:
				list = []interface{}{DefaultValue(f, now)}
			case !isList:
				list = []interface{}{raw}
			}
			values := make([]interface{}, len(list))
			for i, v := range list {
				values[i] = ReadValue(f, v, now)
			}
			out[f.Name] = values
			continue
		}
		if !present || raw == nil {
			out[f.Name] = DefaultValue(f, now)
			continue
		}
		out[f.Name] = ReadValue(f, raw, now)
	}
	out[models.SelectedDefaultKey] = it.Selected()
	return out
}

func text(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(raw)
}

func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
