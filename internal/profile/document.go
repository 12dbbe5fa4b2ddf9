package profile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/common/metrics"
	"jobvault/internal/common/observability"
	"jobvault/internal/common/validation"
	"jobvault/internal/models"
)

const (
	keyCVConfig = "cv_config"
	keySections = "sections"
)

// emptyDocument is written when no profile document exists yet.
var emptyDocument = []byte("{\n  \"cv_config\": {\n    \"sections\": {}\n  }\n}\n")

// Document is a parsed profile document. Key order and the bytes of every
// value it does not rewrite are kept as read.
type Document struct {
	data []byte
}

// sectionsPath is the gjson path of the sections object.
const sectionsPath = keyCVConfig + "." + keySections

// SectionNames lists the persisted sections in file order.
func (d *Document) SectionNames() []string {
	var names []string
	gjson.GetBytes(d.data, sectionsPath).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	return names
}

// Section decodes the persisted config of name. The bool reports whether the
// section is present.
func (d *Document) Section(name string) (*models.SectionConfig, bool, error) {
	raw, ok := d.SectionRaw(name)
	if !ok {
		return nil, false, nil
	}
	var cfg models.SectionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, true, fmt.Errorf("decode section %q: %w", name, err)
	}
	return &cfg, true, nil
}

// SectionRaw returns the stored bytes of a section.
func (d *Document) SectionRaw(name string) (json.RawMessage, bool) {
	r := gjson.GetBytes(d.data, sectionPath(name))
	if !r.Exists() {
		return nil, false
	}
	return json.RawMessage(r.Raw), true
}

// Bytes returns the document as it will be written.
func (d *Document) Bytes() []byte {
	if len(d.data) > 0 && d.data[len(d.data)-1] != '\n' {
		return append(d.data, '\n')
	}
	return d.data
}

func (d *Document) setSection(name string, cfg models.SectionConfig) error {
	raw, err := json.MarshalIndent(sectionPayload(cfg), "      ", "  ")
	if err != nil {
		return err
	}
	data, err := sjson.SetRawBytes(d.data, sectionPath(name), raw)
	if err != nil {
		return err
	}
	d.data = data
	return nil
}

// sectionPath addresses one section. Path syntax characters in the name are
// escaped so the name is matched literally.
func sectionPath(name string) string {
	return sectionsPath + "." + escapePathComponent(name)
}

func escapePathComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// payload is the on-disk shape of a saved section.
type payload struct {
	Enabled         bool            `json:"enabled"`
	Preselected     bool            `json:"preselected"`
	TitleOverride   string          `json:"title_override,omitempty"`
	Items           []models.Item   `json:"items"`
	FieldVisibility map[string]bool `json:"field_visibility"`
}

func sectionPayload(cfg models.SectionConfig) payload {
	p := payload{
		Enabled:         cfg.IsEnabled(),
		Preselected:     cfg.IsPreselected(),
		TitleOverride:   cfg.TitleOverride,
		Items:           cfg.Items,
		FieldVisibility: cfg.FieldVisibility,
	}
	if p.Items == nil {
		p.Items = []models.Item{}
	}
	if p.FieldVisibility == nil {
		p.FieldVisibility = map[string]bool{}
	}
	return p
}

// ParseDocument checks the shape of data against the profile document schema.
func ParseDocument(path string, data []byte) (*Document, error) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, apperrors.NewConfigurationFormatError(path, "invalid JSON: "+err.Error(), err)
	}
	result, err := validation.ValidateDocument(decoded, validation.ProfileDocumentSchema)
	if err != nil {
		return nil, apperrors.NewConfigurationFormatError(path, err.Error(), err)
	}
	if !result.Valid {
		return nil, apperrors.NewConfigurationFormatError(path, result.Summary(), nil)
	}

	return &Document{data: data}, nil
}

// Documents loads and saves the profile document at one path. Saves are
// serialized within the process; other processes are not coordinated with.
type Documents struct {
	path   string
	logger logger.Logger
	obs    *observability.Observability
	mu     sync.Mutex
}

// NewDocuments binds to path. obs may be nil.
func NewDocuments(path string, log logger.Logger, obs *observability.Observability) *Documents {
	return &Documents{
		path:   path,
		logger: log.WithFields(map[string]interface{}{"document": path}),
		obs:    obs,
	}
}

func (d *Documents) Path() string { return d.path }

// Load reads the document, creating an empty one when the file is missing.
func (d *Documents) Load(ctx context.Context) (*Document, error) {
	doc, created, err := d.load()
	switch {
	case err != nil:
		d.obs.RecordDocumentLoad(ctx, metrics.OutcomeError, false)
	default:
		d.obs.RecordDocumentLoad(ctx, metrics.OutcomeSuccess, created)
	}
	return doc, err
}

func (d *Documents) load() (*Document, bool, error) {
	data, err := os.ReadFile(d.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		if err := writeAtomic(d.path, emptyDocument); err != nil {
			return nil, false, apperrors.NewConfigurationIOError(d.path, err)
		}
		d.logger.Info("created profile document", nil)
		doc, err := ParseDocument(d.path, emptyDocument)
		return doc, true, err
	}
	if err != nil {
		return nil, false, apperrors.NewConfigurationIOError(d.path, err)
	}

	doc, err := ParseDocument(d.path, data)
	if err != nil {
		d.logger.WithError(err).Error("profile document rejected", nil)
		return nil, false, err
	}
	return doc, false, nil
}

// LoadSection returns the persisted config of name, or nil when the section
// has never been saved.
func (d *Documents) LoadSection(ctx context.Context, name string) (*models.SectionConfig, error) {
	doc, err := d.Load(ctx)
	if err != nil {
		return nil, err
	}
	cfg, _, err := doc.Section(name)
	if err != nil {
		return nil, apperrors.NewConfigurationFormatError(d.path, err.Error(), err)
	}
	return cfg, nil
}

// SaveSection rereads the whole document, replaces the subtree of name and
// writes the document back. Every other section keeps its stored bytes.
// Concurrent writers outside this process win or lose at document
// granularity.
func (d *Documents) SaveSection(ctx context.Context, name string, cfg models.SectionConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	started := time.Now()
	err := d.saveSection(name, cfg)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	d.obs.RecordSectionWrite(ctx, name, outcome, time.Since(started))
	return err
}

func (d *Documents) saveSection(name string, cfg models.SectionConfig) error {
	doc, _, err := d.load()
	if err != nil {
		return err
	}
	if err := doc.setSection(name, cfg); err != nil {
		return apperrors.NewConfigurationIOError(d.path, err)
	}
	if err := writeAtomic(d.path, doc.Bytes()); err != nil {
		return apperrors.NewConfigurationIOError(d.path, err)
	}
	d.logger.Info("section saved", map[string]interface{}{
		"section": name,
		"items":   len(cfg.Items),
	})
	return nil
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
