package models

import "time"

// Attendance statuses derived from punch times.
const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceHalfDay = "half-day"
	AttendanceAbsent  = "absent"
)

// Attendance is one employee-day punch record.
type Attendance struct {
	ID         int        `json:"id"`
	EmployeeID int        `json:"employee_id"`
	Day        time.Time  `json:"day"`
	PunchIn    *time.Time `json:"punch_in"`
	PunchOut   *time.Time `json:"punch_out"`
	Status     string     `json:"status"` // derived, not stored
}
