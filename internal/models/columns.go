package models

import "fmt"

// Column names a column of job_applications. Rows are read and patched by
// Column, never by position.
type Column string

const (
	ColID              Column = "id"
	ColCompany         Column = "company"
	ColCompanyWebsite  Column = "company_website"
	ColPosition        Column = "position"
	ColStatus          Column = "status"
	ColLocation        Column = "location"
	ColJobSource       Column = "job_source"
	ColJobType         Column = "job_type"
	ColDateApplied     Column = "date_applied"
	ColContactName     Column = "contact_name"
	ColContactEmail    Column = "contact_email"
	ColSalaryRange     Column = "salary_range"
	ColWorkArrangement Column = "work_arrangement"
	ColOfficeDays      Column = "office_days"
	ColJobURL          Column = "job_url"
	ColJobDescription  Column = "job_description"
	ColNotes           Column = "notes"
	ColCVPDF           Column = "cv_pdf"
	ColCVText          Column = "cv_text"
	ColCoverLetterPDF  Column = "cover_letter_pdf"
	ColCoverLetterText Column = "cover_letter_text"
	ColLastUpdate      Column = "last_update"
)

// SchemaVersion is written to PRAGMA user_version once the table matches
// Columns. Version 1 is the first released table; version 2 added job_source,
// job_type, work_arrangement and office_days.
const SchemaVersion = 2

// Columns is the readable column contract, in list order.
var Columns = []Column{
	ColID, ColCompany, ColCompanyWebsite, ColPosition, ColStatus, ColLocation,
	ColJobSource, ColJobType, ColDateApplied, ColContactName, ColContactEmail,
	ColSalaryRange, ColWorkArrangement, ColOfficeDays, ColJobURL,
	ColJobDescription, ColNotes, ColCVText, ColCoverLetterText, ColLastUpdate,
}

// ColumnKind describes the value a column holds.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindBlob
)

var patchable = map[Column]ColumnKind{
	ColCompany:         KindText,
	ColCompanyWebsite:  KindText,
	ColPosition:        KindText,
	ColStatus:          KindText,
	ColLocation:        KindText,
	ColJobSource:       KindText,
	ColJobType:         KindText,
	ColDateApplied:     KindText,
	ColContactName:     KindText,
	ColContactEmail:    KindText,
	ColSalaryRange:     KindText,
	ColWorkArrangement: KindText,
	ColOfficeDays:      KindInteger,
	ColJobURL:          KindText,
	ColJobDescription:  KindText,
	ColNotes:           KindText,
	ColCVPDF:           KindBlob,
	ColCVText:          KindText,
	ColCoverLetterPDF:  KindBlob,
	ColCoverLetterText: KindText,
}

// patchOrder fixes the SET clause order so statements are deterministic.
var patchOrder = []Column{
	ColCompany, ColCompanyWebsite, ColPosition, ColStatus, ColLocation,
	ColJobSource, ColJobType, ColDateApplied, ColContactName, ColContactEmail,
	ColSalaryRange, ColWorkArrangement, ColOfficeDays, ColJobURL,
	ColJobDescription, ColNotes, ColCVPDF, ColCVText, ColCoverLetterPDF,
	ColCoverLetterText,
}

// Patchable reports whether col may appear in a Patch. id and last_update
// are owned by the store.
func (c Column) Patchable() bool {
	_, ok := patchable[c]
	return ok
}

// Kind returns the value kind of a patchable column.
func (c Column) Kind() ColumnKind {
	return patchable[c]
}

// Required columns may be changed but never cleared.
func (c Column) Required() bool {
	return c == ColCompany || c == ColPosition || c == ColStatus
}

// ParseColumn resolves a column name, e.g. from a --clear flag.
func ParseColumn(name string) (Column, error) {
	c := Column(name)
	if c == ColID || c == ColLastUpdate || c.Patchable() {
		return c, nil
	}
	return "", fmt.Errorf("unknown column %q", name)
}

// AttachmentKind selects one of the two binary attachments of a row.
type AttachmentKind string

const (
	AttachmentCV          AttachmentKind = "cv"
	AttachmentCoverLetter AttachmentKind = "cover_letter"
)

// BlobColumn is the column holding the attachment binary.
func (k AttachmentKind) BlobColumn() (Column, error) {
	switch k {
	case AttachmentCV:
		return ColCVPDF, nil
	case AttachmentCoverLetter:
		return ColCoverLetterPDF, nil
	}
	return "", fmt.Errorf("unknown attachment kind %q", k)
}

// TextColumn is the column holding the extracted attachment text.
func (k AttachmentKind) TextColumn() (Column, error) {
	switch k {
	case AttachmentCV:
		return ColCVText, nil
	case AttachmentCoverLetter:
		return ColCoverLetterText, nil
	}
	return "", fmt.Errorf("unknown attachment kind %q", k)
}

// ParseAttachmentKind accepts "cv", "cover_letter" and "cover-letter".
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	switch s {
	case "cv":
		return AttachmentCV, nil
	case "cover_letter", "cover-letter":
		return AttachmentCoverLetter, nil
	}
	return "", fmt.Errorf("unknown attachment kind %q", s)
}
