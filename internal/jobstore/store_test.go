package jobstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobvault/internal/common/database"
	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/common/metrics"
	"jobvault/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "database.sqlite"), logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(database.NewSQLiteFromDB(db), logger.NewTestLogger(t)), mock
}

func acme() models.NewJob {
	return models.NewJob{Company: "Acme", Position: "Engineer", Status: models.StatusApplied}
}

// ==========================
// Round trips on a real database
// ==========================

func TestAdd_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	before := time.Now().Add(-time.Second).Format(timestampLayout)
	id, err := s.Add(ctx, acme())
	require.NoError(t, err)
	assert.Positive(t, id)

	jobs, err := s.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, id, j.ID)
	assert.Equal(t, "Acme", j.Company)
	assert.Equal(t, "Engineer", j.Position)
	assert.Equal(t, models.StatusApplied, j.Status)
	assert.Nil(t, j.CompanyWebsite)
	assert.Nil(t, j.Location)
	assert.Nil(t, j.JobSource)
	assert.Nil(t, j.OfficeDays)
	assert.Nil(t, j.Notes)
	assert.Nil(t, j.CVText)
	assert.Nil(t, j.CoverLetterText)
	require.NotEmpty(t, j.LastUpdate)
	assert.GreaterOrEqual(t, j.LastUpdate, before)
	assert.LessOrEqual(t, j.LastUpdate, time.Now().Add(time.Second).Format(timestampLayout))
}

func TestAdd_LastUpdateIsZonelessMicroseconds(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Add(ctx, acme())
	require.NoError(t, err)
	jobs, err := s.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	stamp := jobs[0].LastUpdate
	assert.Len(t, stamp, len("2006-01-02T15:04:05.000000"))
	assert.NotContains(t, stamp, "Z")
	assert.NotContains(t, stamp, "+")
	_, err = time.ParseInLocation("2006-01-02T15:04:05.000000", stamp, time.Local)
	assert.NoError(t, err)
}

func TestAdd_OptionalFields(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	job := acme()
	job.Location = models.String("Berlin")
	job.OfficeDays = models.Int(2)
	job.WorkArrangement = models.String(string(models.WorkHybrid))
	job.CVPDF = []byte("%PDF-1.4 fake")
	job.CVText = models.String("cv text")

	id, err := s.Add(ctx, job)
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", *got.Location)
	require.NotNil(t, got.OfficeDays)
	assert.Equal(t, 2, *got.OfficeDays)
	assert.Equal(t, "Hybrid", *got.WorkArrangement)
	assert.Equal(t, "cv text", *got.CVText)

	cv, err := s.GetAttachment(ctx, id, models.AttachmentCV)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), cv)

	letter, err := s.GetAttachment(ctx, id, models.AttachmentCoverLetter)
	require.NoError(t, err)
	assert.Nil(t, letter)

	missing, err := s.GetAttachment(ctx, id+100, models.AttachmentCV)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEdit_PreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	job := acme()
	job.Location = models.String("Paris")
	job.Notes = models.String("<p>call back</p>")
	id, err := s.Add(ctx, job)
	require.NoError(t, err)
	before, err := s.Get(ctx, id)
	require.NoError(t, err)

	ok, err := s.Edit(ctx, id, models.NewPatch().Set(models.ColStatus, models.StatusOffer))
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffer, after.Status)
	assert.Greater(t, after.LastUpdate, before.LastUpdate)

	for _, col := range models.Columns {
		if col == models.ColStatus || col == models.ColLastUpdate {
			continue
		}
		assert.Equal(t, before.Value(col), after.Value(col), string(col))
	}
}

func TestEdit_ClearSetsNull(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	job := acme()
	job.Location = models.String("Paris")
	id, err := s.Add(ctx, job)
	require.NoError(t, err)

	ok, err := s.Edit(ctx, id, models.NewPatch().Clear(models.ColLocation))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Location)
}

func TestEdit_EmptyPatchIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Add(ctx, acme())
	require.NoError(t, err)
	before, err := s.Get(ctx, id)
	require.NoError(t, err)

	ok, err := s.Edit(ctx, id, models.NewPatch())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Edit(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.LastUpdate, after.LastUpdate)
}

func TestEdit_SameValueCountsAsTouched(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Add(ctx, acme())
	require.NoError(t, err)
	before, err := s.Get(ctx, id)
	require.NoError(t, err)

	ok, err := s.Edit(ctx, id, models.NewPatch().Set(models.ColCompany, "Acme"))
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Greater(t, after.LastUpdate, before.LastUpdate)
}

func TestEdit_MissingRowAndInvalidPatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ok, err := s.Edit(ctx, 42, models.NewPatch().Set(models.ColNotes, "x"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Edit(ctx, 42, models.NewPatch().Set(models.ColLastUpdate, "2020-01-01"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobValidationFailed))
}

func TestRemove_IsTerminal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Add(ctx, acme())
	require.NoError(t, err)

	assert.True(t, s.Remove(ctx, id))
	assert.False(t, s.Remove(ctx, id))

	jobs, err := s.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, err = s.Get(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobNotFound))
}

func TestListAll_OrderAfterEdit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Add(ctx, models.NewJob{Company: "First", Position: "A", Status: models.StatusApplied})
	require.NoError(t, err)
	second, err := s.Add(ctx, models.NewJob{Company: "Second", Position: "B", Status: models.StatusApplied})
	require.NoError(t, err)
	third, err := s.Add(ctx, models.NewJob{Company: "Third", Position: "C", Status: models.StatusApplied})
	require.NoError(t, err)

	ok, err := s.Edit(ctx, first, models.NewPatch().Set(models.ColStatus, models.StatusInterviewed))
	require.NoError(t, err)
	require.True(t, ok)

	jobs, err := s.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []int64{first, third, second}, []int64{jobs[0].ID, jobs[1].ID, jobs[2].ID})
}

func TestListAll_Limit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, acme())
		require.NoError(t, err)
	}

	jobs, err := s.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = s.ListAll(ctx, 5000)
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
}

func TestStamp_StrictlyIncreasing(t *testing.T) {
	s := &Store{now: func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local) }}

	a := s.stamp()
	b := s.stamp()
	c := s.stamp()
	assert.Equal(t, "2024-05-01T10:00:00.000000", a)
	assert.Equal(t, "2024-05-01T10:00:00.000001", b)
	assert.Less(t, b, c)
}

func TestClose_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "database.sqlite"), logger.NewTestLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.ListAll(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.False(t, s.Remove(ctx, 1))
}

// ==========================
// Schema versioning
// ==========================

func TestMigrate_UpgradesVersionOneTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database.sqlite")

	client, err := database.NewSQLite(ctx, path)
	require.NoError(t, err)
	_, err = client.Exec(ctx, `CREATE TABLE job_applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company TEXT NOT NULL, company_website TEXT, position TEXT NOT NULL,
		status TEXT NOT NULL, location TEXT, date_applied TEXT, contact_name TEXT,
		contact_email TEXT, salary_range TEXT, job_url TEXT, job_description TEXT,
		notes TEXT, cv_pdf BLOB, cv_text TEXT, cover_letter_pdf BLOB,
		cover_letter_text TEXT, last_update TEXT)`)
	require.NoError(t, err)
	_, err = client.Exec(ctx, `INSERT INTO job_applications (company, position, status, last_update)
		VALUES ('Legacy', 'Dev', 'Applied', '2023-01-01T00:00:00.000000')`)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	s, err := Open(ctx, path, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer s.Close()

	cols, err := s.client.ColumnNames(ctx, TableName)
	require.NoError(t, err)
	for _, c := range models.Columns {
		assert.True(t, cols[string(c)], string(c))
	}
	v, err := s.client.UserVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SchemaVersion, v)

	jobs, err := s.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Legacy", jobs[0].Company)
	assert.Nil(t, jobs[0].JobSource)

	// a second migration is a no-op
	require.NoError(t, s.Migrate(ctx))
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database.sqlite")

	client, err := database.NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, client.SetUserVersion(ctx, models.SchemaVersion+1))
	require.NoError(t, client.Close())

	_, err = Open(ctx, path, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageOpenFailed))
}

// ==========================
// Failure paths (sqlmock)
// ==========================

func TestAdd_InsertErrorPropagates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO job_applications`).
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.Add(context.Background(), acme())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageOperationFailed))
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEdit_BuildsSetClauseFromPatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE job_applications SET status = \?, location = \?, last_update = \? WHERE id = \?`).
		WithArgs("Offer", nil, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.Edit(context.Background(), 7, models.NewPatch().
		Clear(models.ColLocation).
		Set(models.ColStatus, models.StatusOffer))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEdit_EmptyPatchRunsNoSQL(t *testing.T) {
	s, mock := newMockStore(t)

	noops := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("edit", metrics.OutcomeNoop))
	ok, err := s.Edit(context.Background(), 7, models.NewPatch())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, noops+1, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("edit", metrics.OutcomeNoop)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEdit_UpdateErrorPropagates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE job_applications`).
		WillReturnError(errors.New("database is locked"))

	_, err := s.Edit(context.Background(), 7, models.NewPatch().Set(models.ColNotes, "x"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageOperationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove_FailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM job_applications WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	assert.False(t, s.Remove(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM job_applications`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	assert.False(t, s.Remove(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("busy"))

	assert.False(t, s.Remove(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll_QueryErrorPropagates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, company, .* FROM job_applications ORDER BY last_update DESC, id DESC LIMIT \?`).
		WithArgs(MaxListLimit).
		WillReturnError(errors.New("no such table"))

	_, err := s.ListAll(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageOperationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAttachment_EmptyBlobIsNil(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT cover_letter_pdf FROM job_applications WHERE id = \?`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"cover_letter_pdf"}).AddRow([]byte{}))

	data, err := s.GetAttachment(context.Background(), 9, models.AttachmentCoverLetter)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAttachment_UnknownKind(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.GetAttachment(context.Background(), 9, models.AttachmentKind("photo"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobValidationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
