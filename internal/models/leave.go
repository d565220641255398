package models

import "time"

// Leave request statuses.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// LeaveRequest is a row in the leave_requests table. Days is the inclusive
// span between FromDay and ToDay.
type LeaveRequest struct {
	ID         int       `json:"id"`
	EmployeeID int       `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	FromDay    time.Time `json:"from_day"`
	ToDay      time.Time `json:"to_day"`
	Days       int       `json:"days"`
	Reason     *string   `json:"reason"`
	Status     string    `json:"status"`
	DecidedBy  *int      `json:"decided_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateLeaveRequest struct {
	LeaveType string  `json:"leave_type"`
	From      string  `json:"from"` // YYYY-MM-DD
	To        string  `json:"to"`   // YYYY-MM-DD
	Reason    *string `json:"reason"`
}
