package models

// FieldType is the closed set of profile field kinds.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldMultiline FieldType = "multiline"
	FieldEnum      FieldType = "enum"
	FieldNumber    FieldType = "number"
	FieldYearMonth FieldType = "year_month"
	FieldObject    FieldType = "object"
)

const (
	LayoutFull = "full"
	LayoutHalf = "half"
)

// FieldSchema declares one form field. Object fields carry their own
// sub-fields.
type FieldSchema struct {
	Name          string        `yaml:"name" json:"name"`
	Label         string        `yaml:"label" json:"label,omitempty"`
	Type          FieldType     `yaml:"type" json:"type"`
	Options       []string      `yaml:"options" json:"options,omitempty"`
	DefaultValue  interface{}   `yaml:"default_value" json:"default_value,omitempty"`
	AllowMultiple bool          `yaml:"allow_multiple" json:"allow_multiple,omitempty"`
	ShowName      *bool         `yaml:"show_name" json:"show_name,omitempty"`
	LayoutWidth   string        `yaml:"layout_width" json:"layout_width,omitempty"`
	Placeholder   string        `yaml:"placeholder" json:"placeholder,omitempty"`
	Fields        []FieldSchema `yaml:"fields" json:"fields,omitempty"`
}

// DisplayLabel falls back to the field name.
func (f FieldSchema) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func (f FieldSchema) ShowsName() bool {
	return f.ShowName == nil || *f.ShowName
}

func (f FieldSchema) Width() string {
	if f.LayoutWidth == LayoutHalf {
		return LayoutHalf
	}
	return LayoutFull
}

// ItemLabel holds the display names of a section's items.
type ItemLabel struct {
	Singular string `yaml:"singular" json:"singular,omitempty"`
	Plural   string `yaml:"plural" json:"plural,omitempty"`
}

// SectionSchema declares one profile section.
type SectionSchema struct {
	Name           string        `yaml:"name" json:"name"`
	DefaultTitle   string        `yaml:"default_title" json:"default_title,omitempty"`
	Description    string        `yaml:"description" json:"description,omitempty"`
	AllowMultiple  bool          `yaml:"allow_multiple" json:"allow_multiple,omitempty"`
	SelectMultiple *bool         `yaml:"select_multiple" json:"select_multiple,omitempty"`
	ItemLabel      ItemLabel     `yaml:"item_label" json:"item_label"`
	Fields         []FieldSchema `yaml:"fields" json:"fields,omitempty"`
}

// SelectsMultiple defaults to true.
func (s SectionSchema) SelectsMultiple() bool {
	return s.SelectMultiple == nil || *s.SelectMultiple
}

func (s SectionSchema) Singular() string {
	if s.ItemLabel.Singular != "" {
		return s.ItemLabel.Singular
	}
	return "Item"
}

func (s SectionSchema) Plural() string {
	if s.ItemLabel.Plural != "" {
		return s.ItemLabel.Plural
	}
	return "Items"
}

// NamedFields skips fields without a name; they cannot be stored.
func (s SectionSchema) NamedFields() []FieldSchema {
	out := make([]FieldSchema, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name != "" {
			out = append(out, f)
		}
	}
	return out
}

// SelectedDefaultKey marks an item as preselected.
const SelectedDefaultKey = "selected_default"

// Item is one payload of a section: field name to scalar, list or nested map,
// plus the selected_default flag.
type Item map[string]interface{}

// Selected reads selected_default. An item without the flag is not selected.
func (it Item) Selected() bool {
	v, _ := it[SelectedDefaultKey].(bool)
	return v
}

// SectionConfig is the persisted state of one section.
type SectionConfig struct {
	Enabled         *bool           `json:"enabled,omitempty"`
	Preselected     *bool           `json:"preselected,omitempty"`
	TitleOverride   string          `json:"title_override,omitempty"`
	FieldVisibility map[string]bool `json:"field_visibility,omitempty"`
	Items           []Item          `json:"items,omitempty"`
}

// IsEnabled defaults to true.
func (c SectionConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// IsPreselected defaults to true.
func (c SectionConfig) IsPreselected() bool {
	return c.Preselected == nil || *c.Preselected
}

// FieldVisible defaults to true for fields not in the visibility map.
func (c SectionConfig) FieldVisible(name string) bool {
	v, ok := c.FieldVisibility[name]
	return !ok || v
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
