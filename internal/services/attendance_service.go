package services

import (
	"context"
	"errors"
	"time"

	"hrms-backend/internal/db"
	"hrms-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// Attendance errors.
var (
	ErrAlreadyPunchedIn  = errors.New("already punched in today")
	ErrNotPunchedIn      = errors.New("not punched in today")
	ErrAlreadyPunchedOut = errors.New("already punched out today")
)

// AttendanceService records daily punch-in/out and derives day statuses.
type AttendanceService struct {
	// LateCutoff is the wall-clock time after which a punch-in counts as
	// late, minutes from midnight local to the punch timestamp.
	LateCutoffMinutes int
	// HalfDayUnder marks a day as half-day when the worked span is shorter.
	HalfDayUnder time.Duration
}

func NewAttendanceService() *AttendanceService {
	return &AttendanceService{
		LateCutoffMinutes: 9*60 + 30, // 09:30
		HalfDayUnder:      4 * time.Hour,
	}
}

// PunchIn opens today's attendance record.
func (s *AttendanceService) PunchIn(ctx context.Context, employeeID int, at time.Time) (*models.Attendance, error) {
	day := at.Truncate(24 * time.Hour)
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO attendance (employee_id, day, punch_in) VALUES ($1, $2, $3)
		 ON CONFLICT (employee_id, day) DO NOTHING`,
		employeeID, day, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyPunchedIn
	}
	return s.get(ctx, employeeID, day)
}

// PunchOut closes today's attendance record.
func (s *AttendanceService) PunchOut(ctx context.Context, employeeID int, at time.Time) (*models.Attendance, error) {
	day := at.Truncate(24 * time.Hour)
	rec, err := s.get(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPunchedIn
		}
		return nil, err
	}
	if rec.PunchOut != nil {
		return nil, ErrAlreadyPunchedOut
	}

	_, err = db.Pool.Exec(ctx,
		`UPDATE attendance SET punch_out = $3 WHERE employee_id = $1 AND day = $2`,
		employeeID, day, at)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, employeeID, day)
}

// Monthly returns the employee's records for a month, newest first.
func (s *AttendanceService) Monthly(ctx context.Context, employeeID, year, month int) ([]models.Attendance, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := db.Pool.Query(ctx,
		`SELECT id, employee_id, day, punch_in, punch_out
		 FROM attendance
		 WHERE employee_id = $1 AND day >= $2 AND day < $3
		 ORDER BY day DESC`,
		employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Attendance
	for rows.Next() {
		var rec models.Attendance
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.PunchIn, &rec.PunchOut); err != nil {
			return nil, err
		}
		rec.Status = s.DeriveStatus(rec.PunchIn, rec.PunchOut)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AbsentDays counts weekdays of the month with no attendance record, capped
// at today for the current month.
func (s *AttendanceService) AbsentDays(ctx context.Context, employeeID, year, month int, now time.Time) (int, int, error) {
	records, err := s.Monthly(ctx, employeeID, year, month)
	if err != nil {
		return 0, 0, err
	}
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.Day.Format("2006-01-02")] = true
	}

	workingDays, absent := 0, 0
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for d := from; d.Month() == time.Month(month) && !d.After(now); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		workingDays++
		if !present[d.Format("2006-01-02")] {
			absent++
		}
	}
	return workingDays, absent, nil
}

// DeriveStatus classifies a day from its punch times: absent without a
// punch-in, half-day when the worked span is under the threshold, late when
// the punch-in is after the cutoff, present otherwise. A still-open day
// (no punch-out) is judged on the punch-in alone.
func (s *AttendanceService) DeriveStatus(punchIn, punchOut *time.Time) string {
	if punchIn == nil {
		return models.AttendanceAbsent
	}
	if punchOut != nil && punchOut.Sub(*punchIn) < s.HalfDayUnder {
		return models.AttendanceHalfDay
	}
	if punchIn.Hour()*60+punchIn.Minute() > s.LateCutoffMinutes {
		return models.AttendanceLate
	}
	return models.AttendancePresent
}

func (s *AttendanceService) get(ctx context.Context, employeeID int, day time.Time) (*models.Attendance, error) {
	var rec models.Attendance
	err := db.Pool.QueryRow(ctx,
		`SELECT id, employee_id, day, punch_in, punch_out
		 FROM attendance WHERE employee_id = $1 AND day = $2`,
		employeeID, day).Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.PunchIn, &rec.PunchOut)
	if err != nil {
		return nil, err
	}
	rec.Status = s.DeriveStatus(rec.PunchIn, rec.PunchOut)
	return &rec, nil
}
