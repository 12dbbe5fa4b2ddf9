// internal/models/application.go
package models

import "fmt"

// Status is the closed set of application states.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewed        Status = "Interviewed"
	StatusOffer              Status = "Offer"
	StatusRejected           Status = "Rejected"
	StatusWithdrawn          Status = "Withdrawn"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusApplied,
	StatusInterviewScheduled,
	StatusInterviewed,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus accepts only the exact display names.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// JobType and WorkArrangement are stored as free text; the constants are the
// suggested values offered by the front end.
type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeInternship JobType = "Internship"
	JobTypeTemporary  JobType = "Temporary"
)

var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeTemporary}

type WorkArrangement string

const (
	WorkOnSite WorkArrangement = "On-site"
	WorkHybrid WorkArrangement = "Hybrid"
	WorkRemote WorkArrangement = "Remote"
)

var WorkArrangements = []WorkArrangement{WorkOnSite, WorkHybrid, WorkRemote}

// JobApplication is one row of job_applications as read back by the store.
// Attachment blobs are never part of it.
type JobApplication struct {
	ID              int64   `json:"id"`
	Company         string  `json:"company"`
	CompanyWebsite  *string `json:"company_website"`
	Position        string  `json:"position"`
	Status          Status  `json:"status"`
	Location        *string `json:"location"`
	JobSource       *string `json:"job_source"`
	JobType         *string `json:"job_type"`
	DateApplied     *string `json:"date_applied"`
	ContactName     *string `json:"contact_name"`
	ContactEmail    *string `json:"contact_email"`
	SalaryRange     *string `json:"salary_range"`
	WorkArrangement *string `json:"work_arrangement"`
	OfficeDays      *int    `json:"office_days"`
	JobURL          *string `json:"job_url"`
	JobDescription  *string `json:"job_description"`
	Notes           *string `json:"notes"`
	CVText          *string `json:"cv_text"`
	CoverLetterText *string `json:"cover_letter_text"`
	LastUpdate      string  `json:"last_update"`
}

// target returns a scan destination for col.
func (j *JobApplication) target(col Column) (interface{}, bool) {
	switch col {
	case ColID:
		return &j.ID, true
	case ColCompany:
		return &j.Company, true
	case ColCompanyWebsite:
		return &j.CompanyWebsite, true
	case ColPosition:
		return &j.Position, true
	case ColStatus:
		return &j.Status, true
	case ColLocation:
		return &j.Location, true
	case ColJobSource:
		return &j.JobSource, true
	case ColJobType:
		return &j.JobType, true
	case ColDateApplied:
		return &j.DateApplied, true
	case ColContactName:
		return &j.ContactName, true
	case ColContactEmail:
		return &j.ContactEmail, true
	case ColSalaryRange:
		return &j.SalaryRange, true
	case ColWorkArrangement:
		return &j.WorkArrangement, true
	case ColOfficeDays:
		return &j.OfficeDays, true
	case ColJobURL:
		return &j.JobURL, true
	case ColJobDescription:
		return &j.JobDescription, true
	case ColNotes:
		return &j.Notes, true
	case ColCVText:
		return &j.CVText, true
	case ColCoverLetterText:
		return &j.CoverLetterText, true
	case ColLastUpdate:
		return &j.LastUpdate, true
	}
	return nil, false
}

// ScanTargets returns destinations for cols in the same order, so rows are
// always bound by column name.
func (j *JobApplication) ScanTargets(cols []Column) ([]interface{}, error) {
	dest := make([]interface{}, len(cols))
	for i, col := range cols {
		t, ok := j.target(col)
		if !ok {
			return nil, fmt.Errorf("column %q is not readable", col)
		}
		dest[i] = t
	}
	return dest, nil
}

// Value returns the current value of a readable text or integer column.
// NULL comes back as nil.
func (j JobApplication) Value(col Column) interface{} {
	t, ok := (&j).target(col)
	if !ok {
		return nil
	}
	switch v := t.(type) {
	case *string:
		return *v
	case **string:
		if *v == nil {
			return nil
		}
		return **v
	case **int:
		if *v == nil {
			return nil
		}
		return **v
	case *Status:
		return string(*v)
	case *int64:
		return *v
	}
	return nil
}

// NewJob is the input of an insert. Company, Position and Status are
// required by the boundary; everything else may stay nil.
type NewJob struct {
	Company         string
	Position        string
	Status          Status
	CompanyWebsite  *string
	Location        *string
	JobSource       *string
	JobType         *string
	DateApplied     *string
	ContactName     *string
	ContactEmail    *string
	SalaryRange     *string
	WorkArrangement *string
	OfficeDays      *int
	JobURL          *string
	JobDescription  *string
	Notes           *string
	CVPDF           []byte
	CVText          *string
	CoverLetterPDF  []byte
	CoverLetterText *string
}

// Fields returns the insert column list and matching values, without
// last_update which the store stamps itself.
func (n NewJob) Fields() ([]Column, []interface{}) {
	cols := []Column{
		ColCompany, ColCompanyWebsite, ColPosition, ColStatus, ColLocation,
		ColJobSource, ColJobType, ColDateApplied, ColContactName, ColContactEmail,
		ColSalaryRange, ColWorkArrangement, ColOfficeDays, ColJobURL,
		ColJobDescription, ColNotes, ColCVPDF, ColCVText, ColCoverLetterPDF,
		ColCoverLetterText,
	}
	vals := []interface{}{
		n.Company, nullable(n.CompanyWebsite), n.Position, string(n.Status), nullable(n.Location),
		nullable(n.JobSource), nullable(n.JobType), nullable(n.DateApplied), nullable(n.ContactName), nullable(n.ContactEmail),
		nullable(n.SalaryRange), nullable(n.WorkArrangement), nullableInt(n.OfficeDays), nullable(n.JobURL),
		nullable(n.JobDescription), nullable(n.Notes), blob(n.CVPDF), nullable(n.CVText), blob(n.CoverLetterPDF),
		nullable(n.CoverLetterText),
	}
	return cols, vals
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return int64(*i)
}

func blob(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// String returns a pointer to s; handy for optional fields.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
