// Package profile is the schema-driven CV sections model: it reads the
// section definitions, computes defaults, and loads and saves the per-user
// profile document one section at a time.
package profile

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/models"
)

//go:embed resources/section_types.yml
var resources embed.FS

// BundledSchemaFile is the name of the embedded definitions.
const BundledSchemaFile = "resources/section_types.yml"

type schemaFile struct {
	Sections []models.SectionSchema `yaml:"sections"`
}

// LoadSchema reads section definitions from name in fsys. A missing or
// malformed resource yields no sections; the failure is logged.
func LoadSchema(fsys fs.FS, name string, log logger.Logger) []models.SectionSchema {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		logSchemaError(log, apperrors.NewSchemaLoadError(name, err))
		return []models.SectionSchema{}
	}
	sections, err := ParseSchema(data)
	if err != nil {
		logSchemaError(log, apperrors.NewSchemaLoadError(name, err))
		return []models.SectionSchema{}
	}
	return sections
}

// LoadBundledSchema reads the definitions compiled into the binary.
func LoadBundledSchema(log logger.Logger) []models.SectionSchema {
	return LoadSchema(resources, BundledSchemaFile, log)
}

// LoadSchemaPath reads definitions from a file on disk, or the bundled ones
// when path is empty.
func LoadSchemaPath(path string, log logger.Logger) []models.SectionSchema {
	if path == "" {
		return LoadBundledSchema(log)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logSchemaError(log, apperrors.NewSchemaLoadError(path, err))
		return []models.SectionSchema{}
	}
	sections, err := ParseSchema(data)
	if err != nil {
		logSchemaError(log, apperrors.NewSchemaLoadError(path, err))
		return []models.SectionSchema{}
	}
	return sections
}

// ParseSchema decodes the YAML document. Sections without a name are dropped.
func ParseSchema(data []byte) ([]models.SectionSchema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse section definitions: %w", err)
	}
	out := make([]models.SectionSchema, 0, len(f.Sections))
	for _, s := range f.Sections {
		if s.Name != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// FindSection returns the section called name.
func FindSection(sections []models.SectionSchema, name string) (models.SectionSchema, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return models.SectionSchema{}, false
}

func logSchemaError(log logger.Logger, err *apperrors.StandardError) {
	log.Warn("section definitions unavailable", map[string]interface{}{
		"code":    string(err.Code),
		"details": err.Details,
	})
}
