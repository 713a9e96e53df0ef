package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles issued by the identity service.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleDispatcher UserRole = "DISPATCHER"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims represents the access token payload. Institute and faculty scope the actor.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	InstituteID string   `json:"institute_id,omitempty"`
	FacultyID   string   `json:"faculty_id,omitempty"`
	jwt.RegisteredClaims
}

// ResourceScope locates a resource within the institute/faculty hierarchy.
type ResourceScope struct {
	InstituteID string
	FacultyID   string
}
