package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobvault/internal/attachment"
	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/models"
	"jobvault/internal/tracker"
)

// fieldFlags collects "column=value" assignments and columns to clear.
type fieldFlags struct {
	sets   []string
	clears []string
}

func (ff *fieldFlags) register(cmd *cobra.Command, withClear bool) {
	cmd.Flags().StringArrayVar(&ff.sets, "set", nil, "Set a column, e.g. --set location=Berlin (repeatable)")
	if withClear {
		cmd.Flags().StringArrayVar(&ff.clears, "clear", nil, "Clear an optional column (repeatable)")
	}
}

// apply writes the assignments into f. Clearing a column is the same as
// setting it blank.
func (ff *fieldFlags) apply(f *tracker.Form) error {
	for _, name := range ff.clears {
		if err := setFormField(f, name, ""); err != nil {
			return err
		}
	}
	for _, s := range ff.sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return apperrors.NewJobValidationError(fmt.Sprintf("--set %q: expected column=value", s))
		}
		if err := setFormField(f, strings.TrimSpace(name), value); err != nil {
			return err
		}
	}
	return nil
}

func setFormField(f *tracker.Form, name, value string) error {
	col, err := models.ParseColumn(name)
	if err != nil {
		return apperrors.NewJobValidationError(err.Error())
	}
	if col == models.ColOfficeDays {
		if strings.TrimSpace(value) == "" {
			f.OfficeDays = nil
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return apperrors.NewJobValidationError(fmt.Sprintf("office_days: %q is not a number", value))
		}
		f.OfficeDays = &n
		return nil
	}
	if !f.Set(col, value) {
		return apperrors.NewJobValidationError(fmt.Sprintf("column %s cannot be edited here", col))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewJobValidationError(fmt.Sprintf("invalid job id %q", s))
	}
	return id, nil
}

func newAddCmd(a *app) *cobra.Command {
	var (
		form   tracker.Form
		fields fieldFlags
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a job application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := fields.apply(&form); err != nil {
				return err
			}
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			id, err := svc.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added job %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Company, "company", "", "Company name (required)")
	cmd.Flags().StringVar(&form.Position, "position", "", "Position title (required)")
	cmd.Flags().StringVar(&form.Status, "status", "", "Application status (default Applied)")
	cmd.Flags().StringVar(&form.Location, "location", "", "Job location")
	cmd.Flags().StringVar(&form.JobURL, "url", "", "Job posting URL")
	fields.register(cmd, false)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		status string
		fields fieldFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit fields of a job application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			before, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			form := tracker.FormFromJob(*before)
			if cmd.Flags().Changed("status") {
				form.Status = status
			}
			if err := fields.apply(&form); err != nil {
				return err
			}

			updated, err := svc.Update(cmd.Context(), id, *before, form)
			if err != nil {
				return err
			}
			if updated {
				fmt.Fprintf(cmd.OutOrStdout(), "updated job %d\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "no changes to job %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New application status")
	fields.register(cmd, true)
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a job application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			if !svc.Delete(cmd.Context(), id) {
				return apperrors.NewJobNotFoundError(id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed job %d\n", id)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List job applications, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			jobs = tracker.Filter(jobs, search)
			if limit > 0 && len(jobs) > limit {
				jobs = jobs[:limit]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), jobs)
			}
			return writeJobTable(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive filter on company, position and location")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJobTable(w io.Writer, jobs []models.JobApplication) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tSTATUS\tLOCATION\tUPDATED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Company, j.Position, j.Status, deref(j.Location), j.LastUpdate)
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one job application as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			job, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <cv|cover-letter> <file>",
		Short: "Store a PDF, DOCX or text attachment and its extracted text",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			kind, err := models.ParseAttachmentKind(args[1])
			if err != nil {
				return apperrors.NewJobValidationError(err.Error())
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read attachment: %w", err)
			}
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Attach(cmd.Context(), id, kind, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attached %s to job %d\n", kind, id)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <cv|cover-letter>",
		Short: "Write a stored attachment to the profile cache and print its path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			kind, err := models.ParseAttachmentKind(args[1])
			if err != nil {
				return apperrors.NewJobValidationError(err.Error())
			}
			if _, err := a.jobs(cmd.Context()); err != nil {
				return err
			}
			data, err := a.store.GetAttachment(cmd.Context(), id, kind)
			if err != nil {
				return err
			}
			if data == nil {
				return fmt.Errorf("job %d has no %s attachment", id, kind)
			}
			path, err := attachment.Export(a.profile.Cache, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newHintsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hints",
		Short: "Print search completer hints (companies, positions, locations)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.jobs(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			for _, h := range tracker.CompleterHints(jobs) {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
