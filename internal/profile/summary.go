package profile

import (
	"fmt"
	"strings"
	"unicode"

	"jobvault/internal/models"
)

const (
	StatusEnabled = "Enabled"
	StatusHidden  = "Hidden"
)

// Summary is the one-line view of a section shown in the section list.
type Summary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Status      string `json:"status"`
	Items       int    `json:"items"`
	Count       string `json:"count"`
}

// Summarize describes section with its persisted config, which may be nil.
func Summarize(section models.SectionSchema, cfg *models.SectionConfig) Summary {
	var c models.SectionConfig
	if cfg != nil {
		c = *cfg
	}

	n := len(c.Items)
	if !section.AllowMultiple && n > 1 {
		n = 1
	}

	s := Summary{
		Name:        section.Name,
		Title:       SectionTitle(section, cfg),
		Description: section.Description,
		Enabled:     c.IsEnabled(),
		Status:      StatusHidden,
		Items:       n,
	}
	if s.Enabled {
		s.Status = StatusEnabled
	}
	if n == 1 {
		s.Count = "1 " + section.Singular()
	} else {
		s.Count = fmt.Sprintf("%d %s", n, section.Plural())
	}
	return s
}

// Summaries describes every section of the schema against doc.
func Summaries(sections []models.SectionSchema, doc *Document) ([]Summary, error) {
	out := make([]Summary, 0, len(sections))
	for _, section := range sections {
		cfg, _, err := doc.Section(section.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(section, cfg))
	}
	return out, nil
}

// SectionTitle prefers the user's override, then the schema title, then the
// section name in title case.
func SectionTitle(section models.SectionSchema, cfg *models.SectionConfig) string {
	if cfg != nil && strings.TrimSpace(cfg.TitleOverride) != "" {
		return cfg.TitleOverride
	}
	if section.DefaultTitle != "" {
		return section.DefaultTitle
	}
	return titleCase(section.Name)
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "work_experience" becomes "Work_Experience".
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
