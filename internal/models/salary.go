package models

// SalarySlip is a computed monthly slip; nothing here is stored.
type SalarySlip struct {
	EmployeeID  int     `json:"employee_id"`
	Username    string  `json:"username"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	BasicSalary float64 `json:"basic_salary"`
	Allowances  float64 `json:"allowances"`
	Deductions  float64 `json:"deductions"`
	WorkingDays int     `json:"working_days"`
	AbsentDays  int     `json:"absent_days"`
	LossOfPay   float64 `json:"loss_of_pay"`
	NetPay      float64 `json:"net_pay"`
}
