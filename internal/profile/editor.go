package profile

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"jobvault/internal/models"
)

var (
	ErrEditorClosed = stderrors.New("section editor is closed")
	ErrLastItem     = stderrors.New("a section keeps at least one item")
	ErrSingleItem   = stderrors.New("section holds a single item")
	ErrItemIndex    = stderrors.New("item index out of range")
	ErrUnknownField = stderrors.New("unknown field")
)

// EditorState tracks one editing session.
type EditorState int

const (
	EditorOpen EditorState = iota
	EditorSaved
	EditorDiscarded
)

func (s EditorState) String() string {
	switch s {
	case EditorOpen:
		return "open"
	case EditorSaved:
		return "saved"
	case EditorDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("EditorState(%d)", int(s))
}

// Editor holds the in-memory state of one section between opening and
// saving. Nothing is written before Save.
type Editor struct {
	docs    *Documents
	section models.SectionSchema
	cfg     models.SectionConfig
	items   []models.Item
	state   EditorState
	now     time.Time
}

// Open starts a session on section with its persisted or default items.
func Open(ctx context.Context, docs *Documents, section models.SectionSchema, now time.Time) (*Editor, error) {
	persisted, err := docs.LoadSection(ctx, section.Name)
	if err != nil {
		return nil, err
	}

	e := &Editor{docs: docs, section: section, now: now}
	if persisted != nil {
		e.cfg = *persisted
		e.cfg.FieldVisibility = copyVisibility(persisted.FieldVisibility)
	}
	e.cfg.Enabled = models.Bool(e.cfg.IsEnabled())
	e.cfg.Preselected = models.Bool(e.cfg.IsPreselected())
	e.items = BuildSectionPayload(section, persisted, now)
	e.cfg.Items = nil
	return e, nil
}

func (e *Editor) State() EditorState           { return e.state }
func (e *Editor) Section() models.SectionSchema { return e.section }

// Items returns a copy of the current items.
func (e *Editor) Items() []models.Item {
	out := make([]models.Item, len(e.items))
	for i, it := range e.items {
		out[i] = copyItem(it)
	}
	return out
}

// Config is the payload Save would write.
func (e *Editor) Config() models.SectionConfig {
	cfg := e.cfg
	cfg.FieldVisibility = copyVisibility(e.cfg.FieldVisibility)
	cfg.Items = e.Items()
	return PreparePayload(e.section, cfg, e.now)
}

func (e *Editor) open() error {
	if e.state != EditorOpen {
		return ErrEditorClosed
	}
	return nil
}

func (e *Editor) item(i int) (models.Item, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(e.items) {
		return nil, fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	return e.items[i], nil
}

// AddItem appends an unselected default item and returns its index.
func (e *Editor) AddItem() (int, error) {
	if err := e.open(); err != nil {
		return 0, err
	}
	if !e.section.AllowMultiple {
		return 0, ErrSingleItem
	}
	it := DefaultItem(e.section, e.now)
	it[models.SelectedDefaultKey] = false
	e.items = append(e.items, it)
	return len(e.items) - 1, nil
}

// RemoveItem drops item i. The last item cannot be removed.
func (e *Editor) RemoveItem(i int) error {
	if _, err := e.item(i); err != nil {
		return err
	}
	if len(e.items) <= 1 {
		return ErrLastItem
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	return nil
}

// SetSelected marks item i. When the section does not select multiple
// items, selecting one clears the others.
func (e *Editor) SetSelected(i int, selected bool) error {
	it, err := e.item(i)
	if err != nil {
		return err
	}
	if selected && !e.section.SelectsMultiple() {
		for j, other := range e.items {
			if j != i {
				other[models.SelectedDefaultKey] = false
			}
		}
	}
	it[models.SelectedDefaultKey] = selected
	return nil
}

// SetField stores raw in field name of item i, coerced to the field type.
// Repeating fields accept a list or a single value.
func (e *Editor) SetField(i int, name string, raw interface{}) error {
	it, err := e.item(i)
	if err != nil {
		return err
	}
	field, ok := e.field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if !field.AllowMultiple {
		it[name] = ReadValue(field, raw, e.now)
		return nil
	}
	list, isList := raw.([]interface{})
	if !isList {
		list = []interface{}{raw}
	}
	values := make([]interface{}, len(list))
	for k, v := range list {
		values[k] = ReadValue(field, v, e.now)
	}
	it[name] = values
	return nil
}

func (e *Editor) SetEnabled(enabled bool) error {
	if err := e.open(); err != nil {
		return err
	}
	e.cfg.Enabled = models.Bool(enabled)
	return nil
}

func (e *Editor) SetPreselected(preselected bool) error {
	if err := e.open(); err != nil {
		return err
	}
	e.cfg.Preselected = models.Bool(preselected)
	return nil
}

func (e *Editor) SetTitleOverride(title string) error {
	if err := e.open(); err != nil {
		return err
	}
	e.cfg.TitleOverride = title
	return nil
}

// SetFieldVisible toggles whether a field is printed.
func (e *Editor) SetFieldVisible(name string, visible bool) error {
	if err := e.open(); err != nil {
		return err
	}
	if _, ok := e.field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if e.cfg.FieldVisibility == nil {
		e.cfg.FieldVisibility = map[string]bool{}
	}
	e.cfg.FieldVisibility[name] = visible
	return nil
}

// Save writes the section and closes the session. A failed write leaves the
// session open.
func (e *Editor) Save(ctx context.Context) error {
	if err := e.open(); err != nil {
		return err
	}
	if err := e.docs.SaveSection(ctx, e.section.Name, e.Config()); err != nil {
		return err
	}
	e.state = EditorSaved
	return nil
}

// Discard closes the session without writing.
func (e *Editor) Discard() error {
	if err := e.open(); err != nil {
		return err
	}
	e.state = EditorDiscarded
	return nil
}

func (e *Editor) field(name string) (models.FieldSchema, bool) {
	for _, f := range e.section.NamedFields() {
		if f.Name == name {
			return f, true
		}
	}
	return models.FieldSchema{}, false
}

// PreparePayload normalizes cfg against section before it is stored: items
// are read through the field types, a single-item section keeps only its
// first item, and at least one item is always present.
func PreparePayload(section models.SectionSchema, cfg models.SectionConfig, now time.Time) models.SectionConfig {
	cfg.Enabled = models.Bool(cfg.IsEnabled())
	cfg.Preselected = models.Bool(cfg.IsPreselected())
	cfg.Items = BuildSectionPayload(section, &cfg, now)
	return cfg
}

func copyItem(it models.Item) models.Item {
	out := make(models.Item, len(it))
	for k, v := range it {
		if list, ok := v.([]interface{}); ok {
			v = append([]interface{}(nil), list...)
		}
		out[k] = v
	}
	return out
}

func copyVisibility(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
