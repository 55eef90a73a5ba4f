package handlers

import "time"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required"`
	IsRememberPassword bool   `json:"isRememberPassword"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"fullName" binding:"required"`
	RoleIDs  []int64 `json:"roleIds"`
}

// LoginResponse carries the issued session.
type LoginResponse struct {
	Token       string    `json:"token"`
	ExpiredDate time.Time `json:"expiredDate"`
}

// ProfileResponse is returned by GET /api/secure/profile.
type ProfileResponse struct {
	User       ProfileUser       `json:"user"`
	AuthResult ProfileAuthResult `json:"authResult"`
	ClientIP   string            `json:"clientIp"`
}

type ProfileUser struct {
	ID       int64    `json:"id"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	IsActive bool     `json:"isActive"`
	Roles    []string `json:"roles"`
}

type ProfileAuthResult struct {
	IsOk    bool   `json:"isOk"`
	Message string `json:"message"`
}
