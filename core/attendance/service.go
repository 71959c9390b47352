package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

type (
	Repository interface {
		// GetSheet returns the sheet stored for (courseID, date), reporting
		// ok=false when no record exists yet.
		GetSheet(ctx context.Context, courseID, date string) (Sheet, bool, error)
		// SaveSheet stores the sheet under (courseID, date), fully replacing
		// any previous record for that date.
		SaveSheet(ctx context.Context, s Sheet) error
		// QueryCourseSheets returns every dated sheet of the course.
		QueryCourseSheets(ctx context.Context, courseID string) ([]Sheet, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the attendance sheet for the date. A date with no record yet
// yields an empty sheet, not an error.
func (svc *Service) Get(ctx context.Context, courseID, date string) (Sheet, error) {
	if err := validDate(date); err != nil {
		return Sheet{}, err
	}
	s, ok, err := svc.repo.GetSheet(ctx, courseID, date)
	if err != nil {
		return Sheet{}, err
	}
	if !ok {
		return NewSheet(courseID, date), nil
	}
	if s.Entries == nil {
		s.Entries = map[string]Status{}
	}
	return s, nil
}

// Save replaces the date's record wholesale with the given sheet.
func (svc *Service) Save(ctx context.Context, s Sheet) error {
	if err := validDate(s.Date); err != nil {
		return err
	}
	for id, status := range s.Entries {
		if !status.Valid() {
			return core.NewValidationError(
				errors.Errorf("invalid attendance status %q for student %s", status, id),
				core.FieldError{Field: id, Error: "must be one of: present, late, absent"},
			)
		}
	}
	return svc.repo.SaveSheet(ctx, s)
}

// StudentHistory scans the course's dated sheets and projects out the given
// student's status per date. Dates where the student has no entry are
// omitted, not reported as absent.
func (svc *Service) StudentHistory(ctx context.Context, courseID, studentID string) ([]DayStatus, error) {
	sheets, err := svc.repo.QueryCourseSheets(ctx, courseID)
	if err != nil {
		return nil, err
	}
	history := make([]DayStatus, 0, len(sheets))
	for _, s := range sheets {
		if status, ok := s.Entries[studentID]; ok {
			history = append(history, DayStatus{Date: s.Date, Status: status})
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date < history[j].Date })
	return history, nil
}

// ListDates returns the dates that have a saved sheet for the course,
// sorted ascending. Clients use it to populate history pickers.
func (svc *Service) ListDates(ctx context.Context, courseID string) ([]string, error) {
	sheets, err := svc.repo.QueryCourseSheets(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(sheets))
	for _, s := range sheets {
		dates = append(dates, s.Date)
	}
	sort.Strings(dates)
	return dates, nil
}

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return core.NewValidationError(
			errors.New("invalid attendance date"),
			core.FieldError{Field: "date", Error: "must be a calendar date in YYYY-MM-DD format"},
		)
	}
	return nil
}
