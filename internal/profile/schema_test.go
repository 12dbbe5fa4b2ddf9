package profile

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobvault/internal/common/logger"
	"jobvault/internal/models"
)

func TestLoadBundledSchema(t *testing.T) {
	sections := LoadBundledSchema(logger.NewTestLogger(t))
	require.NotEmpty(t, sections)

	info, ok := FindSection(sections, "personal_info")
	require.True(t, ok)
	assert.False(t, info.AllowMultiple)
	assert.Equal(t, "Personal Information", info.DefaultTitle)

	summary, ok := FindSection(sections, "summary")
	require.True(t, ok)
	assert.False(t, summary.SelectsMultiple())

	skills, ok := FindSection(sections, "skills")
	require.True(t, ok)
	assert.Equal(t, models.FieldObject, skills.Fields[0].Type)
	assert.Len(t, skills.Fields[0].Fields, 2)

	_, ok = FindSection(sections, "hobbies")
	assert.False(t, ok)
}

func TestLoadSchema_MissingResourceIsEmpty(t *testing.T) {
	sections := LoadSchema(fstest.MapFS{}, "section_types.yml", logger.NewTestLogger(t))
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}

func TestLoadSchema_ParseFailureIsEmpty(t *testing.T) {
	fsys := fstest.MapFS{"bad.yml": {Data: []byte("sections: [name: {")}}
	assert.Empty(t, LoadSchema(fsys, "bad.yml", logger.NewTestLogger(t)))
}

func TestLoadSchemaPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
sections:
  - name: hobbies
    fields:
      - name: hobby
        type: string
  - default_title: nameless
`), 0o600))

	sections := LoadSchemaPath(path, logger.NewTestLogger(t))
	require.Len(t, sections, 1)
	assert.Equal(t, "hobbies", sections[0].Name)
	assert.Equal(t, "Item", sections[0].Singular())

	assert.Empty(t, LoadSchemaPath(filepath.Join(t.TempDir(), "missing.yml"), logger.NewTestLogger(t)))
	assert.NotEmpty(t, LoadSchemaPath("", logger.NewTestLogger(t)))
}
