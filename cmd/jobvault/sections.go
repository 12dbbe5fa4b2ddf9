package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/models"
	"jobvault/internal/profile"
)

func newSectionsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Summarize the CV sections of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, sections := a.documents()
			doc, err := docs.Load(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := profile.Summaries(sections, doc)
			if err != nil {
				return apperrors.NewConfigurationFormatError(docs.Path(), err.Error(), err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tSTATUS\tITEMS")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Title, s.Status, s.Count)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newSectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Show, edit or replace one CV section",
	}
	cmd.AddCommand(newSectionShowCmd(a), newSectionEditCmd(a), newSectionSaveCmd(a))
	return cmd
}

func newSectionShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a section with defaults filled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, section, err := a.section(args[0])
			if err != nil {
				return err
			}
			editor, err := profile.Open(cmd.Context(), docs, section, a.now())
			if err != nil {
				return err
			}
			defer editor.Discard()
			return writeJSON(cmd.OutOrStdout(), editor.Config())
		},
	}
}

// sectionEdits are the editor operations requested on the command line.
// Removals run before additions so indexes refer to the stored items.
type sectionEdits struct {
	enabled     bool
	preselected bool
	title       string
	add         int
	remove      []int
	selectItem  int
	hide        []string
	show        []string
	values      []string
}

func newSectionEditCmd(a *app) *cobra.Command {
	var e sectionEdits
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change a section through the editor and save it",
		Example: `  jobvault section edit summary --set 0.text="Backend engineer"
  jobvault section edit work_experience --add 1 --set 1.company=Acme --select 1
  jobvault section edit languages --enabled=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, section, err := a.section(args[0])
			if err != nil {
				return err
			}
			editor, err := profile.Open(cmd.Context(), docs, section, a.now())
			if err != nil {
				return err
			}
			if err := e.apply(cmd, editor); err != nil {
				_ = editor.Discard()
				return fmt.Errorf("edit section %s: %w", section.Name, err)
			}
			if err := editor.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved section %s (%d items)\n", section.Name, len(editor.Items()))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&e.enabled, "enabled", true, "Include the section in the CV")
	f.BoolVar(&e.preselected, "preselected", true, "Preselect the section when building a CV")
	f.StringVar(&e.title, "title", "", "Title override (empty restores the default title)")
	f.IntVar(&e.add, "add", 0, "Append this many default items")
	f.IntSliceVar(&e.remove, "remove", nil, "Remove items by index")
	f.IntVar(&e.selectItem, "select", -1, "Select the item at this index")
	f.StringSliceVar(&e.hide, "hide", nil, "Hide fields from the CV")
	f.StringSliceVar(&e.show, "show", nil, "Show hidden fields again")
	f.StringArrayVar(&e.values, "set", nil, `Set a field as index.field=value; JSON values are accepted, e.g. 0.tags=["go","sql"]`)
	return cmd
}

func (e *sectionEdits) apply(cmd *cobra.Command, editor *profile.Editor) error {
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		if err := editor.SetEnabled(e.enabled); err != nil {
			return err
		}
	}
	if flags.Changed("preselected") {
		if err := editor.SetPreselected(e.preselected); err != nil {
			return err
		}
	}
	if flags.Changed("title") {
		if err := editor.SetTitleOverride(e.title); err != nil {
			return err
		}
	}
	// highest index first so earlier removals do not shift later ones
	for i := len(e.remove) - 1; i >= 0; i-- {
		if err := editor.RemoveItem(e.remove[i]); err != nil {
			return err
		}
	}
	for i := 0; i < e.add; i++ {
		if _, err := editor.AddItem(); err != nil {
			return err
		}
	}
	if e.selectItem >= 0 {
		if err := editor.SetSelected(e.selectItem, true); err != nil {
			return err
		}
	}
	for _, name := range e.hide {
		if err := editor.SetFieldVisible(name, false); err != nil {
			return err
		}
	}
	for _, name := range e.show {
		if err := editor.SetFieldVisible(name, true); err != nil {
			return err
		}
	}
	for _, v := range e.values {
		idx, field, raw, err := parseFieldValue(v)
		if err != nil {
			return err
		}
		if err := editor.SetField(idx, field, raw); err != nil {
			return err
		}
	}
	return nil
}

// parseFieldValue splits "index.field=value". A value that parses as JSON
// is used as such, anything else as plain text.
func parseFieldValue(s string) (int, string, interface{}, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", nil, fmt.Errorf("--set %q: expected index.field=value", s)
	}
	idxText, field, ok := strings.Cut(target, ".")
	if !ok || field == "" {
		return 0, "", nil, fmt.Errorf("--set %q: expected index.field=value", s)
	}
	idx, err := strconv.Atoi(idxText)
	if err != nil {
		return 0, "", nil, fmt.Errorf("--set %q: bad item index", s)
	}

	var raw interface{} = value
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			raw = decoded
		}
	}
	return idx, field, raw, nil
}

func newSectionSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <payload.json>",
		Short: "Replace a section with the contents of a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, section, err := a.section(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return apperrors.NewConfigurationIOError(args[1], err)
			}
			var cfg models.SectionConfig
			if err := json.Unmarshal(data, &cfg); err != nil {
				return apperrors.NewConfigurationFormatError(args[1], "invalid JSON: "+err.Error(), err)
			}

			cfg = profile.PreparePayload(section, cfg, a.now())
			if err := docs.SaveSection(cmd.Context(), section.Name, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved section %s (%d items)\n", section.Name, len(cfg.Items))
			return nil
		},
	}
}
