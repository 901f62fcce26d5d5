package models

// ImportTarget describes a destination table for spreadsheet ingestion.
// Columns is the column order contract: uploaded sheets must list their
// columns in exactly this left-to-right order. Header labels are not matched.
type ImportTarget struct {
	Name    string
	Table   string
	Columns []string
}

var (
	CoursesTarget = ImportTarget{
		Name:    "courses",
		Table:   "courses",
		Columns: []string{"department", "code", "title", "instructor", "ects", "type"},
	}

	TeachersTarget = ImportTarget{
		Name:    "teachers",
		Table:   "teachers",
		Columns: []string{"lastname", "name", "email"},
	}
)

// ImportReport summarizes a completed ingestion
type ImportReport struct {
	Target     string `json:"target"`
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	ArchiveKey string `json:"archive_key,omitempty"`
}

// ImportResponse is returned after a successful upload
type ImportResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
}
