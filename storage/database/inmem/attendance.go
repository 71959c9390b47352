package inmemdb

import (
	"context"

	"github.com/aulavirtual/aula/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func cloneSheet(s attendance.Sheet) attendance.Sheet {
	cp := s
	cp.Entries = make(map[string]attendance.Status, len(s.Entries))
	for k, v := range s.Entries {
		cp.Entries[k] = v
	}
	return cp
}

func (repo *attendanceRepository) GetSheet(_ context.Context, courseID, date string) (attendance.Sheet, bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	dates, ok := repo.db.table[courseID]
	if !ok {
		return attendance.Sheet{}, false, nil
	}
	s, ok := dates[date]
	if !ok {
		return attendance.Sheet{}, false, nil
	}
	return cloneSheet(s), true, nil
}

func (repo *attendanceRepository) SaveSheet(_ context.Context, s attendance.Sheet) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	dates, ok := repo.db.table[s.CourseID]
	if !ok {
		dates = make(map[string]attendance.Sheet)
		repo.db.table[s.CourseID] = dates
	}
	dates[s.Date] = cloneSheet(s)
	return nil
}

func (repo *attendanceRepository) QueryCourseSheets(_ context.Context, courseID string) ([]attendance.Sheet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sheets := make([]attendance.Sheet, 0, len(repo.db.table[courseID]))
	for _, s := range repo.db.table[courseID] {
		sheets = append(sheets, cloneSheet(s))
	}
	return sheets, nil
}
