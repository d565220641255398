package models

import "time"

// Employee is a row in the employees table.
type Employee struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Department   *string   `json:"department"`
	Designation  *string   `json:"designation"`
	IsAdmin      bool      `json:"is_admin"`
	BasicSalary  float64   `json:"basic_salary"`
	Allowances   float64   `json:"allowances"`
	Deductions   float64   `json:"deductions"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token        string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	UserID       int    `json:"user_id"`
	IsAdmin      bool   `json:"is_admin"`
}

// EmployeeInfo holds basic profile info sent with conversation history.
type EmployeeInfo struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
}
