package services

import (
	"context"
	"errors"
	"time"

	"hrms-backend/internal/db"
	"hrms-backend/internal/models"
	"hrms-backend/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists is returned when registering an already taken username.
var ErrUserExists = errors.New("username already exists")

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var emp models.Employee
	query := `INSERT INTO employees (username, password_hash, first_name, last_name, department, designation)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, username, first_name, last_name, department, designation, is_admin, created_at`
	err = db.Pool.QueryRow(ctx, query, req.Username, string(hash),
		req.FirstName, req.LastName, req.Department, req.Designation,
	).Scan(&emp.ID, &emp.Username, &emp.FirstName, &emp.LastName,
		&emp.Department, &emp.Designation, &emp.IsAdmin, &emp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return &emp, nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var emp models.Employee
	query := `SELECT id, username, password_hash, is_admin FROM employees WHERE username = $1`
	err := db.Pool.QueryRow(ctx, query, req.Username).Scan(&emp.ID, &emp.Username, &emp.PasswordHash, &emp.IsAdmin)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := GenerateJWT(emp.ID, emp.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateRefreshToken(emp.ID, emp.Username)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:        token,
		RefreshToken: refresh,
		Username:     emp.Username,
		UserID:       emp.ID,
		IsAdmin:      emp.IsAdmin,
	}, nil
}

// ListEmployees returns the whole directory.
func (s *UserService) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, username, first_name, last_name, department, designation, is_admin, created_at
		 FROM employees ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var emp models.Employee
		if err := rows.Scan(&emp.ID, &emp.Username, &emp.FirstName, &emp.LastName,
			&emp.Department, &emp.Designation, &emp.IsAdmin, &emp.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// GetProfile returns one employee including salary fields.
func (s *UserService) GetProfile(ctx context.Context, userID int) (*models.Employee, error) {
	var emp models.Employee
	err := db.Pool.QueryRow(ctx,
		`SELECT id, username, first_name, last_name, department, designation,
		        is_admin, basic_salary, allowances, deductions, created_at
		 FROM employees WHERE id = $1`,
		userID).Scan(&emp.ID, &emp.Username, &emp.FirstName, &emp.LastName,
		&emp.Department, &emp.Designation, &emp.IsAdmin,
		&emp.BasicSalary, &emp.Allowances, &emp.Deductions, &emp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// UpdateProfile updates name and department fields, leaving nil ones alone.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, firstName, lastName, department, designation *string) (*models.Employee, error) {
	_, err := db.Pool.Exec(ctx,
		`UPDATE employees SET
		   first_name  = COALESCE($2, first_name),
		   last_name   = COALESCE($3, last_name),
		   department  = COALESCE($4, department),
		   designation = COALESCE($5, designation)
		 WHERE id = $1`,
		userID, firstName, lastName, department, designation)
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func GenerateJWT(userID int, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_SECRET", "secret")))
}

func GenerateRefreshToken(userID int, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"typ":      "refresh",
		"exp":      time.Now().Add(time.Hour * 24 * 30).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_REFRESH_SECRET", utils.GetEnv("JWT_SECRET", "secret"))))
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	return validateWithSecret(tokenString, utils.GetEnv("JWT_SECRET", "secret"))
}

func ValidateRefreshToken(tokenString string) (jwt.MapClaims, error) {
	claims, err := validateWithSecret(tokenString, utils.GetEnv("JWT_REFRESH_SECRET", utils.GetEnv("JWT_SECRET", "secret")))
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

func validateWithSecret(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
