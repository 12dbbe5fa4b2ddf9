// Package jobstore is the data-access object over the job_applications table.
package jobstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobvault/internal/common/database"
	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/common/metrics"
	"jobvault/internal/models"
)

const (
	// TableName is the single table owned by the store.
	TableName = "job_applications"

	// MaxListLimit caps ListAll.
	MaxListLimit = 1000

	// timestampLayout is fixed width so that text order equals time order.
	timestampLayout = "2006-01-02T15:04:05.000000"
)

var ErrStoreClosed = stderrors.New("job store is closed")

const createTableSQL = `CREATE TABLE IF NOT EXISTS job_applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company TEXT NOT NULL,
	company_website TEXT,
	position TEXT NOT NULL,
	status TEXT NOT NULL,
	location TEXT,
	job_source TEXT,
	job_type TEXT,
	date_applied TEXT,
	contact_name TEXT,
	contact_email TEXT,
	salary_range TEXT,
	work_arrangement TEXT,
	office_days INTEGER,
	job_url TEXT,
	job_description TEXT,
	notes TEXT,
	cv_pdf BLOB,
	cv_text TEXT,
	cover_letter_pdf BLOB,
	cover_letter_text TEXT,
	last_update TEXT
)`

// upgradeColumns were added after the first release; older files get them
// through ALTER TABLE.
var upgradeColumns = []struct {
	name models.Column
	ddl  string
}{
	{models.ColJobSource, "TEXT"},
	{models.ColJobType, "TEXT"},
	{models.ColWorkArrangement, "TEXT"},
	{models.ColOfficeDays, "INTEGER"},
}

// Store owns every statement against job_applications.
type Store struct {
	client *database.SQLiteClient
	logger logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	lastStamp time.Time
}

func New(client *database.SQLiteClient, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "jobstore"}),
		now:    time.Now,
	}
}

// Open opens the database file at path and brings its schema up to date.
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	client, err := database.NewSQLite(ctx, path)
	if err != nil {
		return nil, apperrors.NewStorageOpenError(path, err)
	}
	s := New(client, log)
	if err := s.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the table if absent, adds columns introduced by later
// releases and records SchemaVersion in user_version.
func (s *Store) Migrate(ctx context.Context) error {
	started := time.Now()
	version, err := s.client.UserVersion(ctx)
	if err != nil {
		return s.migrateFailed(started, err)
	}
	if version > models.SchemaVersion {
		return s.migrateFailed(started, fmt.Errorf("schema version %d is newer than supported version %d", version, models.SchemaVersion))
	}

	if _, err := s.client.Exec(ctx, createTableSQL); err != nil {
		return s.migrateFailed(started, err)
	}

	existing, err := s.client.ColumnNames(ctx, TableName)
	if err != nil {
		return s.migrateFailed(started, err)
	}
	for _, col := range upgradeColumns {
		if existing[string(col.name)] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", TableName, col.name, col.ddl)
		if _, err := s.client.Exec(ctx, stmt); err != nil {
			return s.migrateFailed(started, err)
		}
		s.logger.Info("added column", map[string]interface{}{"column": string(col.name)})
	}

	if version != models.SchemaVersion {
		if err := s.client.SetUserVersion(ctx, models.SchemaVersion); err != nil {
			return s.migrateFailed(started, err)
		}
		s.logger.Info("schema upgraded", map[string]interface{}{
			"from": version,
			"to":   models.SchemaVersion,
		})
	}

	metrics.ObserveStoreOperation("migrate", metrics.OutcomeSuccess, started)
	return nil
}

func (s *Store) migrateFailed(started time.Time, err error) error {
	metrics.ObserveStoreOperation("migrate", metrics.OutcomeError, started)
	s.logger.Error("migration failed", map[string]interface{}{"error": err.Error()})
	return apperrors.NewStorageOpenError(s.client.Path(), err)
}

// Add inserts a row and returns its id. The store does not check required
// fields beyond the NOT NULL constraints; the tracker does.
func (s *Store) Add(ctx context.Context, job models.NewJob) (int64, error) {
	started := time.Now()
	if err := s.checkOpen(); err != nil {
		return 0, s.fail("add", started, err)
	}

	cols, vals := job.Fields()
	cols = append(cols, models.ColLastUpdate)
	vals = append(vals, s.stamp())

	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", TableName, strings.Join(names, ", "), strings.Join(marks, ", "))

	res, err := s.client.Exec(ctx, query, vals...)
	if err != nil {
		return 0, s.fail("add", started, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail("add", started, err)
	}

	metrics.ObserveStoreOperation("add", metrics.OutcomeSuccess, started)
	s.logger.Debug("job added", map[string]interface{}{"id": id})
	return id, nil
}

// Edit applies patch to row id and re-stamps last_update. It reports whether
// a row was updated. An empty patch touches nothing and reports false.
func (s *Store) Edit(ctx context.Context, id int64, patch *models.Patch) (bool, error) {
	started := time.Now()
	if patch.IsEmpty() {
		metrics.ObserveStoreOperation("edit", metrics.OutcomeNoop, started)
		return false, nil
	}
	if err := patch.Validate(); err != nil {
		metrics.ObserveStoreOperation("edit", metrics.OutcomeError, started)
		return false, apperrors.NewJobValidationError(err.Error())
	}
	if err := s.checkOpen(); err != nil {
		return false, s.fail("edit", started, err)
	}

	cols := patch.Columns()
	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+2)
	for _, c := range cols {
		v, _ := patch.Get(c)
		sets = append(sets, string(c)+" = ?")
		args = append(args, v)
	}
	sets = append(sets, string(models.ColLastUpdate)+" = ?")
	args = append(args, s.stamp(), id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", TableName, strings.Join(sets, ", "))
	res, err := s.client.Exec(ctx, query, args...)
	if err != nil {
		return false, s.fail("edit", started, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail("edit", started, err)
	}

	if n == 0 {
		metrics.ObserveStoreOperation("edit", metrics.OutcomeNotFound, started)
		return false, nil
	}
	metrics.ObserveStoreOperation("edit", metrics.OutcomeSuccess, started)
	s.logger.Debug("job edited", map[string]interface{}{"id": id, "columns": len(cols)})
	return true, nil
}

// Remove deletes row id. Storage failures are logged, rolled back and
// reported as false.
func (s *Store) Remove(ctx context.Context, id int64) bool {
	started := time.Now()
	if err := s.checkOpen(); err != nil {
		s.logRemoveFailure(id, err, started)
		return false
	}

	tx, err := s.client.BeginTx(ctx)
	if err != nil {
		s.logRemoveFailure(id, err, started)
		return false
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("rollback failed", map[string]interface{}{"id": id, "error": rbErr.Error()})
			}
		}
	}()

	res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", TableName), id)
	if err != nil {
		s.logRemoveFailure(id, err, started)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logRemoveFailure(id, err, started)
		return false
	}
	if err := tx.Commit(); err != nil {
		s.logRemoveFailure(id, err, started)
		return false
	}
	committed = true

	if n == 0 {
		metrics.ObserveStoreOperation("remove", metrics.OutcomeNotFound, started)
		return false
	}
	metrics.ObserveStoreOperation("remove", metrics.OutcomeSuccess, started)
	s.logger.Debug("job removed", map[string]interface{}{"id": id})
	return true
}

func (s *Store) logRemoveFailure(id int64, err error, started time.Time) {
	metrics.ObserveStoreOperation("remove", metrics.OutcomeError, started)
	s.logger.Error("remove failed", map[string]interface{}{"id": id, "error": err.Error()})
}

// ListAll returns up to limit rows, most recently updated first. A limit
// outside 1..MaxListLimit means MaxListLimit.
func (s *Store) ListAll(ctx context.Context, limit int) ([]models.JobApplication, error) {
	started := time.Now()
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	if err := s.checkOpen(); err != nil {
		return nil, s.fail("list", started, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY last_update DESC, id DESC LIMIT ?", selectList(), TableName)
	rows, err := s.client.Query(ctx, query, limit)
	if err != nil {
		return nil, s.fail("list", started, err)
	}
	defer rows.Close()

	jobs := make([]models.JobApplication, 0)
	for rows.Next() {
		var j models.JobApplication
		dest, err := j.ScanTargets(models.Columns)
		if err != nil {
			return nil, s.fail("list", started, err)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, s.fail("list", started, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list", started, err)
	}

	metrics.ObserveStoreOperation("list", metrics.OutcomeSuccess, started)
	metrics.StoredJobs.Set(float64(len(jobs)))
	return jobs, nil
}

// Get returns a single row.
func (s *Store) Get(ctx context.Context, id int64) (*models.JobApplication, error) {
	started := time.Now()
	if err := s.checkOpen(); err != nil {
		return nil, s.fail("get", started, err)
	}

	var j models.JobApplication
	dest, err := j.ScanTargets(models.Columns)
	if err != nil {
		return nil, s.fail("get", started, err)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectList(), TableName)
	if err := s.client.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			metrics.ObserveStoreOperation("get", metrics.OutcomeNotFound, started)
			return nil, apperrors.NewJobNotFoundError(id)
		}
		return nil, s.fail("get", started, err)
	}

	metrics.ObserveStoreOperation("get", metrics.OutcomeSuccess, started)
	return &j, nil
}

// GetAttachment returns the stored blob, or nil when the row is missing or
// holds no attachment of that kind.
func (s *Store) GetAttachment(ctx context.Context, id int64, kind models.AttachmentKind) ([]byte, error) {
	started := time.Now()
	col, err := kind.BlobColumn()
	if err != nil {
		metrics.ObserveStoreOperation("get_attachment", metrics.OutcomeError, started)
		return nil, apperrors.NewJobValidationError(err.Error())
	}
	if err := s.checkOpen(); err != nil {
		return nil, s.fail("get_attachment", started, err)
	}

	var data []byte
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", col, TableName)
	if err := s.client.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			metrics.ObserveStoreOperation("get_attachment", metrics.OutcomeNotFound, started)
			return nil, nil
		}
		return nil, s.fail("get_attachment", started, err)
	}

	if len(data) == 0 {
		metrics.ObserveStoreOperation("get_attachment", metrics.OutcomeNotFound, started)
		return nil, nil
	}
	metrics.ObserveStoreOperation("get_attachment", metrics.OutcomeSuccess, started)
	return data, nil
}

// Close releases the database handle. It is safe to call more than once.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return apperrors.NewStorageOperationError("close", err)
	}
	return nil
}

func (s *Store) checkOpen() error {
	if s.client.Closed() {
		return ErrStoreClosed
	}
	return nil
}

func (s *Store) fail(operation string, started time.Time, err error) error {
	metrics.ObserveStoreOperation(operation, metrics.OutcomeError, started)
	s.logger.Error("store operation failed", map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
	return apperrors.NewStorageOperationError(operation, err)
}

// stamp returns the next last_update value. Stamps strictly increase within
// a process, so the most recent mutation always sorts first.
func (s *Store) stamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Truncate(time.Microsecond)
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now.Format(timestampLayout)
}

func selectList() string {
	names := make([]string, len(models.Columns))
	for i, c := range models.Columns {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
