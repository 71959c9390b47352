package attendance

// Status of one student on one class day.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// DateLayout is the key format for attendance sheets: an ISO 8601 calendar
// date with no time component.
const DateLayout = "2006-01-02"

// Sheet is one course's attendance record for one calendar date, mapping
// student id to status. Saving a sheet replaces the date's record wholesale:
// a student omitted on a re-save has no entry for that date anymore.
type Sheet struct {
	CourseID string            `json:"course_id"`
	Date     string            `json:"date"`
	Entries  map[string]Status `json:"entries"`
}

func NewSheet(courseID, date string) Sheet {
	return Sheet{CourseID: courseID, Date: date, Entries: map[string]Status{}}
}

// SetStatus updates one student's entry on the in-progress sheet. This is
// the client-local accumulation step before a single Save.
func (s *Sheet) SetStatus(studentID string, status Status) {
	if s.Entries == nil {
		s.Entries = map[string]Status{}
	}
	s.Entries[studentID] = status
}

// DayStatus is one entry of a student's per-course attendance history.
type DayStatus struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
}
