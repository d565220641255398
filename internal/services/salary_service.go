package services

import (
	"context"
	"math"
	"time"

	"hrms-backend/internal/models"
)

// SalaryService computes monthly salary slips. Nothing is stored; a slip is
// always derived from the employee's pay fields and that month's attendance.
type SalaryService struct {
	users      *UserService
	attendance *AttendanceService
}

func NewSalaryService(users *UserService, attendance *AttendanceService) *SalaryService {
	return &SalaryService{users: users, attendance: attendance}
}

// Slip builds the slip for one employee-month.
func (s *SalaryService) Slip(ctx context.Context, employeeID, year, month int) (*models.SalarySlip, error) {
	emp, err := s.users.GetProfile(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	workingDays, absentDays, err := s.attendance.AbsentDays(ctx, employeeID, year, month, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	slip := ComputeSlip(emp.BasicSalary, emp.Allowances, emp.Deductions, workingDays, absentDays)
	slip.EmployeeID = emp.ID
	slip.Username = emp.Username
	slip.Year = year
	slip.Month = month
	return &slip, nil
}

// ComputeSlip applies the pay arithmetic: gross = basic + allowances, loss of
// pay = absent days at the per-working-day basic rate, net = gross −
// deductions − loss of pay, floored at zero. Amounts are rounded to cents.
func ComputeSlip(basic, allowances, deductions float64, workingDays, absentDays int) models.SalarySlip {
	var lop float64
	if workingDays > 0 && absentDays > 0 {
		lop = basic / float64(workingDays) * float64(absentDays)
	}
	net := basic + allowances - deductions - lop
	if net < 0 {
		net = 0
	}
	return models.SalarySlip{
		BasicSalary: basic,
		Allowances:  allowances,
		Deductions:  deductions,
		WorkingDays: workingDays,
		AbsentDays:  absentDays,
		LossOfPay:   roundCents(lop),
		NetPay:      roundCents(net),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
