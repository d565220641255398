package services

import (
	"context"
	"errors"
	"time"

	"hrms-backend/internal/db"
	"hrms-backend/internal/models"
)

// Leave errors.
var (
	ErrInvalidLeaveRange = errors.New("leave end date is before start date")
	ErrLeaveNotFound     = errors.New("leave request not found")
	ErrLeaveDecided      = errors.New("leave request already decided")
)

// LeaveService manages leave requests.
type LeaveService struct{}

func NewLeaveService() *LeaveService {
	return &LeaveService{}
}

// LeaveDays counts the days of a leave span, both ends inclusive.
func LeaveDays(from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, ErrInvalidLeaveRange
	}
	return int(to.Sub(from).Hours()/24) + 1, nil
}

// Request files a new leave request for the employee.
func (s *LeaveService) Request(ctx context.Context, employeeID int, req models.CreateLeaveRequest) (*models.LeaveRequest, error) {
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, errors.New("invalid from date, want YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, errors.New("invalid to date, want YYYY-MM-DD")
	}
	days, err := LeaveDays(from, to)
	if err != nil {
		return nil, err
	}

	var lr models.LeaveRequest
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO leave_requests (employee_id, leave_type, from_day, to_day, days, reason)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, employee_id, leave_type, from_day, to_day, days, reason, status, decided_by, created_at`,
		employeeID, req.LeaveType, from, to, days, req.Reason,
	).Scan(&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.FromDay, &lr.ToDay,
		&lr.Days, &lr.Reason, &lr.Status, &lr.DecidedBy, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

// Decide approves or rejects a pending request. Decisions are final.
func (s *LeaveService) Decide(ctx context.Context, requestID, adminID int, approve bool) (*models.LeaveRequest, error) {
	status := models.LeaveRejected
	if approve {
		status = models.LeaveApproved
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE leave_requests SET status = $2, decided_by = $3
		 WHERE id = $1 AND status = $4`,
		requestID, status, adminID, models.LeavePending)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// either missing or already decided
		var existing string
		err := db.Pool.QueryRow(ctx,
			`SELECT status FROM leave_requests WHERE id = $1`, requestID).Scan(&existing)
		if err != nil {
			return nil, ErrLeaveNotFound
		}
		return nil, ErrLeaveDecided
	}
	return s.get(ctx, requestID)
}

// ListForEmployee returns the employee's own requests, newest first.
func (s *LeaveService) ListForEmployee(ctx context.Context, employeeID int) ([]models.LeaveRequest, error) {
	return s.list(ctx,
		`SELECT id, employee_id, leave_type, from_day, to_day, days, reason, status, decided_by, created_at
		 FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
}

// ListPending returns every undecided request, oldest first, for admins.
func (s *LeaveService) ListPending(ctx context.Context) ([]models.LeaveRequest, error) {
	return s.list(ctx,
		`SELECT id, employee_id, leave_type, from_day, to_day, days, reason, status, decided_by, created_at
		 FROM leave_requests WHERE status = $1 ORDER BY created_at`, models.LeavePending)
}

func (s *LeaveService) list(ctx context.Context, query string, args ...any) ([]models.LeaveRequest, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.LeaveRequest
	for rows.Next() {
		var lr models.LeaveRequest
		if err := rows.Scan(&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.FromDay, &lr.ToDay,
			&lr.Days, &lr.Reason, &lr.Status, &lr.DecidedBy, &lr.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}

func (s *LeaveService) get(ctx context.Context, requestID int) (*models.LeaveRequest, error) {
	var lr models.LeaveRequest
	err := db.Pool.QueryRow(ctx,
		`SELECT id, employee_id, leave_type, from_day, to_day, days, reason, status, decided_by, created_at
		 FROM leave_requests WHERE id = $1`,
		requestID).Scan(&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.FromDay, &lr.ToDay,
		&lr.Days, &lr.Reason, &lr.Status, &lr.DecidedBy, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}
