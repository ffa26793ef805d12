package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/auth"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type userResponse struct {
	User model.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.svc.Register(r.Context(), req.Email, req.Password, req.Username); err != nil {
		s.writeServiceError(w, r, "register", err, "Registration failed")
		return
	}
	s.metrics.outcome("register", "ok")
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tok, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, "login", err, "Login failed")
		return
	}
	s.metrics.outcome("login", "ok")
	writeJSON(w, http.StatusOK, loginResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt, User: tok.User})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.RequestReset(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, "forgot_password", err, "Failed to process request")
		return
	}
	s.metrics.outcome("forgot_password", "ok")
	writeMessage(w, http.StatusOK, "OTP sent to your email")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		s.writeServiceError(w, r, "reset_password", err, "Error resetting password")
		return
	}
	s.metrics.outcome("reset_password", "ok")
	writeMessage(w, http.StatusOK, "Password reset successful")
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: *u})
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Empty message means the error text itself is shown to the client.
var serviceErrors = []errorMapping{
	{auth.ErrNotFound, http.StatusNotFound, "not_found", "User not found"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials"},
	{auth.ErrInvalidOrExpired, http.StatusBadRequest, "invalid_or_expired", "Invalid or expired OTP"},
	{auth.ErrConflict, http.StatusBadRequest, "conflict", "User already exists"},
	{auth.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "unauthorized", "invalid or expired token"},
	{auth.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
}

// writeServiceError maps a service error to a response. Anything that is not
// a domain outcome is logged and answered with internalMsg.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, internalMsg string) {
	if !auth.IsDomainError(err) {
		s.log.ErrorContext(r.Context(), "request failed",
			"operation", op,
			"err", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		s.metrics.outcome(op, "internal")
		writeError(w, http.StatusInternalServerError, "internal", internalMsg)
		return
	}

	for _, m := range serviceErrors {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = strings.TrimPrefix(err.Error(), m.err.Error()+": ")
		}
		s.metrics.outcome(op, m.code)
		writeError(w, m.status, m.code, msg)
		return
	}
	// IsDomainError and serviceErrors list the same sentinels.
	writeError(w, http.StatusInternalServerError, "internal", internalMsg)
}
