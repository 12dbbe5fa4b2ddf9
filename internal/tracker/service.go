// Package tracker holds the job flows behind the tracker page: form
// validation, edit diffs, search and completer hints.
package tracker

import (
	"context"
	"strings"

	"jobvault/internal/attachment"
	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/common/validation"
	"jobvault/internal/models"
)

// JobStore is the subset of jobstore.Store the tracker uses.
type JobStore interface {
	Add(ctx context.Context, job models.NewJob) (int64, error)
	Edit(ctx context.Context, id int64, patch *models.Patch) (bool, error)
	Remove(ctx context.Context, id int64) bool
	ListAll(ctx context.Context, limit int) ([]models.JobApplication, error)
	Get(ctx context.Context, id int64) (*models.JobApplication, error)
}

// Form mirrors the add/edit overlay: every field is raw user text.
type Form struct {
	Company         string `json:"company" validate:"notblank"`
	Position        string `json:"position" validate:"notblank"`
	Status          string `json:"status" validate:"jobstatus"`
	CompanyWebsite  string `json:"company_website"`
	Location        string `json:"location"`
	JobSource       string `json:"job_source"`
	JobType         string `json:"job_type"`
	DateApplied     string `json:"date_applied"`
	ContactName     string `json:"contact_name"`
	ContactEmail    string `json:"contact_email"`
	SalaryRange     string `json:"salary_range"`
	WorkArrangement string `json:"work_arrangement"`
	OfficeDays      *int   `json:"office_days" validate:"omitempty,min=0,max=7"`
	JobURL          string `json:"job_url"`
	JobDescription  string `json:"job_description"`
	Notes           string `json:"notes"`
}

// textFields binds each text column to its form field.
func (f *Form) textFields() map[models.Column]*string {
	return map[models.Column]*string{
		models.ColCompany:         &f.Company,
		models.ColPosition:        &f.Position,
		models.ColStatus:          &f.Status,
		models.ColCompanyWebsite:  &f.CompanyWebsite,
		models.ColLocation:        &f.Location,
		models.ColJobSource:       &f.JobSource,
		models.ColJobType:         &f.JobType,
		models.ColDateApplied:     &f.DateApplied,
		models.ColContactName:     &f.ContactName,
		models.ColContactEmail:    &f.ContactEmail,
		models.ColSalaryRange:     &f.SalaryRange,
		models.ColWorkArrangement: &f.WorkArrangement,
		models.ColJobURL:          &f.JobURL,
		models.ColJobDescription:  &f.JobDescription,
		models.ColNotes:           &f.Notes,
	}
}

// Set assigns a text field by column name; it reports false for columns
// the form does not carry.
func (f *Form) Set(col models.Column, value string) bool {
	p, ok := f.textFields()[col]
	if !ok {
		return false
	}
	*p = value
	return true
}

// FormFromJob pre-fills an edit form.
func FormFromJob(j models.JobApplication) Form {
	f := Form{}
	for col, p := range f.textFields() {
		if v, ok := j.Value(col).(string); ok {
			*p = v
		}
	}
	if j.OfficeDays != nil {
		d := *j.OfficeDays
		f.OfficeDays = &d
	}
	return f
}

type Service struct {
	store  JobStore
	logger logger.Logger
	limit  int
}

func New(store JobStore, limit int, log logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "tracker"}),
		limit:  limit,
	}
}

func (s *Service) validate(f Form) error {
	res := validation.ValidateStruct(f)
	if !res.Valid {
		return apperrors.NewJobValidationError(res.Summary())
	}
	return nil
}

// Create trims the form, turns blanks into NULL and inserts it. A blank
// status means Applied.
func (s *Service) Create(ctx context.Context, f Form) (int64, error) {
	if strings.TrimSpace(f.Status) == "" {
		f.Status = string(models.StatusApplied)
	}
	f = trimmed(f)
	if err := s.validate(f); err != nil {
		return 0, err
	}

	id, err := s.store.Add(ctx, models.NewJob{
		Company:         f.Company,
		Position:        f.Position,
		Status:          models.Status(f.Status),
		CompanyWebsite:  orNil(f.CompanyWebsite),
		Location:        orNil(f.Location),
		JobSource:       orNil(f.JobSource),
		JobType:         orNil(f.JobType),
		DateApplied:     orNil(f.DateApplied),
		ContactName:     orNil(f.ContactName),
		ContactEmail:    orNil(f.ContactEmail),
		SalaryRange:     orNil(f.SalaryRange),
		WorkArrangement: orNil(f.WorkArrangement),
		OfficeDays:      f.OfficeDays,
		JobURL:          orNil(f.JobURL),
		JobDescription:  orNil(f.JobDescription),
		Notes:           orNil(f.Notes),
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("job application created", map[string]interface{}{"id": id, "company": f.Company})
	return id, nil
}

// DiffPatch compares the edited form with the row it was opened from and
// returns only the changed columns. Both sides are trimmed before comparing;
// a field emptied by the user becomes NULL.
func DiffPatch(before models.JobApplication, f Form) *models.Patch {
	f = trimmed(f)
	patch := models.NewPatch()

	for col, p := range f.textFields() {
		var old interface{}
		if v, ok := before.Value(col).(string); ok {
			if t := strings.TrimSpace(v); t != "" {
				old = t
			}
		}
		var now interface{}
		if *p != "" {
			now = *p
		}
		if old != now {
			patch.Set(col, now)
		}
	}

	switch {
	case before.OfficeDays == nil && f.OfficeDays != nil,
		before.OfficeDays != nil && f.OfficeDays == nil,
		before.OfficeDays != nil && f.OfficeDays != nil && *before.OfficeDays != *f.OfficeDays:
		patch.Set(models.ColOfficeDays, f.OfficeDays)
	}
	return patch
}

// Update saves an edit form. Nothing changed means no store call and false.
func (s *Service) Update(ctx context.Context, id int64, before models.JobApplication, f Form) (bool, error) {
	f = trimmed(f)
	if err := s.validate(f); err != nil {
		return false, err
	}
	patch := DiffPatch(before, f)
	if patch.IsEmpty() {
		return false, nil
	}

	ok, err := s.store.Edit(ctx, id, patch)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("job application updated", map[string]interface{}{"id": id, "columns": patch.Len()})
	}
	return ok, nil
}

// Refresh reloads the list shown on the tracker page.
func (s *Service) Refresh(ctx context.Context) ([]models.JobApplication, error) {
	return s.store.ListAll(ctx, s.limit)
}

// Get loads one application.
func (s *Service) Get(ctx context.Context, id int64) (*models.JobApplication, error) {
	return s.store.Get(ctx, id)
}

// Delete removes an application; false covers both a missing row and a
// storage failure, which the store has already logged.
func (s *Service) Delete(ctx context.Context, id int64) bool {
	ok := s.store.Remove(ctx, id)
	if ok {
		s.logger.Info("job application removed", map[string]interface{}{"id": id})
	}
	return ok
}

// Filter keeps jobs whose company, position or location contains query,
// ignoring case. A blank query keeps everything.
func Filter(jobs []models.JobApplication, query string) []models.JobApplication {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.JobApplication, 0, len(jobs))
	for _, j := range jobs {
		if q == "" ||
			strings.Contains(strings.ToLower(j.Company), q) ||
			strings.Contains(strings.ToLower(j.Position), q) ||
			(j.Location != nil && strings.Contains(strings.ToLower(*j.Location), q)) {
			out = append(out, j)
		}
	}
	return out
}

// CompleterHints lists every company, then every position, then every
// location, skipping empty values and keeping row order.
func CompleterHints(jobs []models.JobApplication) []string {
	hints := make([]string, 0, len(jobs)*3)
	for _, j := range jobs {
		if j.Company != "" {
			hints = append(hints, j.Company)
		}
	}
	for _, j := range jobs {
		if j.Position != "" {
			hints = append(hints, j.Position)
		}
	}
	for _, j := range jobs {
		if j.Location != nil && *j.Location != "" {
			hints = append(hints, *j.Location)
		}
	}
	return hints
}

// Attach extracts the text of data and stores blob and text on row id.
func (s *Service) Attach(ctx context.Context, id int64, kind models.AttachmentKind, data []byte) error {
	blobCol, err := kind.BlobColumn()
	if err != nil {
		return apperrors.NewJobValidationError(err.Error())
	}
	textCol, _ := kind.TextColumn()

	text, err := attachment.ExtractText(data)
	if err != nil {
		return err
	}

	patch := models.NewPatch().Set(blobCol, data).Set(textCol, text)
	ok, err := s.store.Edit(ctx, id, patch)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewJobNotFoundError(id)
	}
	s.logger.Info("attachment stored", map[string]interface{}{
		"id":    id,
		"kind":  string(kind),
		"bytes": len(data),
	})
	return nil
}

func (s *Service) AttachCV(ctx context.Context, id int64, data []byte) error {
	return s.Attach(ctx, id, models.AttachmentCV, data)
}

func (s *Service) AttachCoverLetter(ctx context.Context, id int64, data []byte) error {
	return s.Attach(ctx, id, models.AttachmentCoverLetter, data)
}

func trimmed(f Form) Form {
	for _, p := range f.textFields() {
		*p = strings.TrimSpace(*p)
	}
	return f
}

func orNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
