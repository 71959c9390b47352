package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetSheet(ctx context.Context, courseID, date string) (attendance.Sheet, bool, error) {
	var doc []byte
	err := repo.db.QueryRowContext(ctx,
		"SELECT doc FROM attendance WHERE course_id = $1 AND date = $2", courseID, date,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return attendance.Sheet{}, false, nil
	}
	if err != nil {
		return attendance.Sheet{}, false, core.NewTransientError("GetSheet", courseID, err)
	}

	sheet := attendance.Sheet{CourseID: courseID, Date: date}
	if err = json.Unmarshal(doc, &sheet.Entries); err != nil {
		return attendance.Sheet{}, false, errors.Wrap(err, "decoding attendance sheet")
	}
	return sheet, true, nil
}

// SaveSheet replaces the stored sheet for the (course, date) pair wholesale.
func (repo *attendanceRepository) SaveSheet(ctx context.Context, sheet attendance.Sheet) error {
	doc, err := json.Marshal(sheet.Entries)
	if err != nil {
		return errors.Wrap(err, "encoding attendance sheet")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO attendance (course_id, date, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, date) DO UPDATE SET doc = EXCLUDED.doc`,
		sheet.CourseID, sheet.Date, doc,
	)
	if err != nil {
		return core.NewTransientError("SaveSheet", sheet.CourseID, err)
	}
	return nil
}

func (repo *attendanceRepository) QueryCourseSheets(ctx context.Context, courseID string) ([]attendance.Sheet, error) {
	rows, err := repo.db.QueryContext(ctx,
		"SELECT date, doc FROM attendance WHERE course_id = $1", courseID)
	if err != nil {
		return nil, core.NewTransientError("QueryCourseSheets", courseID, err)
	}
	defer rows.Close()

	var sheets []attendance.Sheet
	for rows.Next() {
		var (
			date string
			doc  []byte
		)
		if err = rows.Scan(&date, &doc); err != nil {
			return nil, core.NewTransientError("QueryCourseSheets", courseID, err)
		}
		sheet := attendance.Sheet{CourseID: courseID, Date: date}
		if err = json.Unmarshal(doc, &sheet.Entries); err != nil {
			return nil, errors.Wrap(err, "decoding attendance sheet")
		}
		sheets = append(sheets, sheet)
	}
	if err = rows.Err(); err != nil {
		return nil, core.NewTransientError("QueryCourseSheets", courseID, err)
	}
	return sheets, nil
}
