package tracker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/jobstore"
	"jobvault/internal/models"
)

// fakeStore records calls and never touches a database.
type fakeStore struct {
	added   []models.NewJob
	patches []*models.Patch
	editOK  bool
	jobs    []models.JobApplication
}

func (f *fakeStore) Add(_ context.Context, job models.NewJob) (int64, error) {
	f.added = append(f.added, job)
	return int64(len(f.added)), nil
}

func (f *fakeStore) Edit(_ context.Context, _ int64, patch *models.Patch) (bool, error) {
	f.patches = append(f.patches, patch)
	return f.editOK, nil
}

func (f *fakeStore) Remove(context.Context, int64) bool { return false }

func (f *fakeStore) ListAll(context.Context, int) ([]models.JobApplication, error) {
	return f.jobs, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*models.JobApplication, error) {
	return nil, apperrors.NewJobNotFoundError(id)
}

func newService(t *testing.T, store JobStore) *Service {
	return New(store, 1000, logger.NewTestLogger(t))
}

func TestCreate_TrimsAndNullsBlanks(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store)

	id, err := svc.Create(context.Background(), Form{
		Company:  "  Acme ",
		Position: "Engineer",
		Location: "   ",
		Notes:    " remember ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, store.added, 1)
	job := store.added[0]
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, models.StatusApplied, job.Status)
	assert.Nil(t, job.Location)
	require.NotNil(t, job.Notes)
	assert.Equal(t, "remember", *job.Notes)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		form  Form
		field string
	}{
		{"missing company", Form{Position: "Engineer"}, "company"},
		{"missing position", Form{Company: "Acme", Position: "  "}, "position"},
		{"unknown status", Form{Company: "Acme", Position: "Engineer", Status: "Ghosted"}, "status"},
		{"office days out of range", Form{Company: "Acme", Position: "Engineer", OfficeDays: models.Int(9)}, "office_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			_, err := newService(t, store).Create(context.Background(), tt.form)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobValidationFailed))
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, store.added)
		})
	}
}

func TestDiffPatch(t *testing.T) {
	before := models.JobApplication{
		ID:         1,
		Company:    "Acme",
		Position:   "Engineer",
		Status:     models.StatusApplied,
		Location:   models.String("Berlin "),
		Notes:      models.String("old"),
		OfficeDays: models.Int(2),
	}

	f := FormFromJob(before)
	assert.True(t, DiffPatch(before, f).IsEmpty(), "an untouched form has no changes")

	f.Status = string(models.StatusOffer)
	f.Notes = " "
	f.ContactName = "Kim"
	f.OfficeDays = models.Int(3)

	patch := DiffPatch(before, f)
	assert.Equal(t, []models.Column{
		models.ColStatus, models.ColContactName, models.ColOfficeDays, models.ColNotes,
	}, patch.Columns())

	v, _ := patch.Get(models.ColNotes)
	assert.Nil(t, v)
	v, _ = patch.Get(models.ColOfficeDays)
	assert.Equal(t, int64(3), v)

	f = FormFromJob(before)
	f.OfficeDays = nil
	patch = DiffPatch(before, f)
	assert.True(t, patch.Has(models.ColOfficeDays))
	v, _ = patch.Get(models.ColOfficeDays)
	assert.Nil(t, v)
}

func TestUpdate_NoChangesSkipsStore(t *testing.T) {
	store := &fakeStore{editOK: true}
	svc := newService(t, store)
	before := models.JobApplication{ID: 1, Company: "Acme", Position: "Engineer", Status: models.StatusApplied}

	ok, err := svc.Update(context.Background(), 1, before, FormFromJob(before))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.patches)

	f := FormFromJob(before)
	f.Company = ""
	_, err = svc.Update(context.Background(), 1, before, f)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobValidationFailed))

	f = FormFromJob(before)
	f.Position = "Staff Engineer"
	ok, err = svc.Update(context.Background(), 1, before, f)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, store.patches, 1)
	assert.Equal(t, []models.Column{models.ColPosition}, store.patches[0].Columns())
}

func jobsFixture() []models.JobApplication {
	return []models.JobApplication{
		{ID: 3, Company: "Acme", Position: "Backend Engineer", Location: models.String("Berlin")},
		{ID: 2, Company: "Globex", Position: "SRE"},
		{ID: 1, Company: "Initech", Position: "Data Analyst", Location: models.String("Remote")},
	}
}

func TestFilter(t *testing.T) {
	jobs := jobsFixture()

	ids := func(js []models.JobApplication) []int64 {
		out := []int64{}
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}

	assert.Equal(t, []int64{3, 2, 1}, ids(Filter(jobs, "  ")))
	assert.Equal(t, []int64{3}, ids(Filter(jobs, "ACME")))
	assert.Equal(t, []int64{3}, ids(Filter(jobs, "berl")))
	assert.Equal(t, []int64{2}, ids(Filter(jobs, "sre")))
	assert.Equal(t, []int64{1}, ids(Filter(jobs, "REMOTE")))
	assert.Empty(t, Filter(jobs, "nothing matches"))
}

func TestCompleterHints(t *testing.T) {
	assert.Equal(t, []string{
		"Acme", "Globex", "Initech",
		"Backend Engineer", "SRE", "Data Analyst",
		"Berlin", "Remote",
	}, CompleterHints(jobsFixture()))
}

func TestAttach_UnsupportedAndMissingRow(t *testing.T) {
	store := &fakeStore{editOK: false}
	svc := newService(t, store)

	err := svc.AttachCV(context.Background(), 5, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAttachmentUnsupported))
	assert.Empty(t, store.patches)

	err = svc.AttachCoverLetter(context.Background(), 5, []byte("Dear team"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobNotFound))
	require.Len(t, store.patches, 1)
	assert.Equal(t, []models.Column{models.ColCoverLetterPDF, models.ColCoverLetterText}, store.patches[0].Columns())
}

func TestService_WithRealStore(t *testing.T) {
	ctx := context.Background()
	store, err := jobstore.Open(ctx, filepath.Join(t.TempDir(), "database.sqlite"), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer store.Close()

	svc := newService(t, store)
	id, err := svc.Create(ctx, Form{Company: "Acme", Position: "Engineer", Location: "Berlin"})
	require.NoError(t, err)

	before, err := svc.Get(ctx, id)
	require.NoError(t, err)

	f := FormFromJob(*before)
	f.Location = ""
	ok, err := svc.Update(ctx, id, *before, f)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.AttachCV(ctx, id, []byte("plain text resume")))

	jobs, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Nil(t, jobs[0].Location)
	require.NotNil(t, jobs[0].CVText)
	assert.Equal(t, "plain text resume", *jobs[0].CVText)

	blob, err := store.GetAttachment(ctx, id, models.AttachmentCV)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain text resume"), blob)

	assert.True(t, svc.Delete(ctx, id))
	assert.False(t, svc.Delete(ctx, id))
}
