// Package httpapi exposes the auth engine over a JSON REST surface.
//
// Flow outcomes that are part of the protocol (wrong password, expired
// token, unknown email and friends) are reported with HTTP 200 and an error
// payload; HTTP status codes are reserved for transport-level problems:
// malformed requests, failed CSRF checks, and collaborator faults.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/quillauth/quillauth"
)

// Server wires the engine, a session issuer, and a CSRF guard into an
// http.Handler.
type Server struct {
	engine   *quillauth.Engine
	sessions SessionIssuer
	csrf     CSRFGuard
	log      zerolog.Logger
}

// New builds a Server. sessions may be nil when no session should be
// established on login or verification; csrf may be nil to skip screening.
func New(engine *quillauth.Engine, sessions SessionIssuer, csrf CSRFGuard, log zerolog.Logger) *Server {
	if csrf == nil {
		csrf = AllowAll{}
	}
	return &Server{engine: engine, sessions: sessions, csrf: csrf, log: log}
}

// Routes returns the router for all auth endpoints.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodPost, "/register", s.guarded(s.handleRegister))
	router.Handle(http.MethodGet, "/verify/:encid/:enctoken", s.handleVerify)
	router.HandlerFunc(http.MethodPost, "/login", s.guarded(s.handleLogin))
	router.HandlerFunc(http.MethodPost, "/forgot-password", s.guarded(s.handleForgotPassword))
	router.Handle(http.MethodPost, "/reset-password/:encid/:enctoken", s.guardedParams(s.handleResetPassword))
	if guard, ok := s.csrf.(*DoubleSubmit); ok {
		router.HandlerFunc(http.MethodGet, "/csrf", guard.TokenHandler())
	}
	return router
}

func (s *Server) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.csrf.Check(r); err != nil {
			writeError(w, http.StatusForbidden, "csrf_rejected", "request failed the csrf check")
			return
		}
		next(w, r)
	}
}

func (s *Server) guardedParams(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		if err := s.csrf.Check(r); err != nil {
			writeError(w, http.StatusForbidden, "csrf_rejected", "request failed the csrf check")
			return
		}
		next(w, r, params)
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeFlowError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"id":     result.ID.String(),
		"email":  result.Email,
		"resent": result.Resent,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	result, err := s.engine.VerifyEmail(r.Context(), params.ByName("encid"), params.ByName("enctoken"))
	if err != nil {
		s.writeFlowError(w, "verify", err)
		return
	}
	payload := map[string]any{
		"status": "ok",
		"id":     result.ID.String(),
		"email":  result.Email,
	}
	if s.sessions != nil {
		token, err := s.sessions.Issue(w, r, result.ID, result.Email, quillauth.LoginMethodEmail)
		if err != nil {
			s.log.Error().Err(err).Str("flow", "verify").Msg("session issue failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if token != "" {
			payload["session_token"] = token
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.writeFlowError(w, "login", err)
		return
	}
	payload := map[string]any{
		"status": "ok",
		"id":     result.ID.String(),
		"email":  result.Email,
		"method": string(result.Method),
	}
	if s.sessions != nil {
		token, err := s.sessions.Issue(w, r, result.ID, result.Email, result.Method)
		if err != nil {
			s.log.Error().Err(err).Str("flow", "login").Msg("session issue failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if token != "" {
			payload["session_token"] = token
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		s.writeFlowError(w, "forgot_password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"email":  result.Email,
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.ResetPassword(r.Context(),
		params.ByName("encid"), params.ByName("enctoken"), req.Password, req.Confirm)
	if err != nil {
		s.writeFlowError(w, "reset_password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"id":     result.ID.String(),
		"email":  result.Email,
	})
}

// flowErrorCodes maps protocol outcomes to wire codes. Anything absent here
// is a collaborator fault and surfaces as a 500.
var flowErrorCodes = []struct {
	err  error
	code string
}{
	{quillauth.ErrInvalidEmailAddress, "invalid_email"},
	{quillauth.ErrWeakPassword, "weak_password"},
	{quillauth.ErrAlreadyRegistered, "already_registered"},
	{quillauth.ErrRegistrationFailure, "registration_failed"},
	{quillauth.ErrForgotPasswordFailure, "forgot_password_failed"},
	{quillauth.ErrUnableToDecrypt, "unable_to_decrypt"},
	{quillauth.ErrUnableToParseIdentifier, "unable_to_parse_identifier"},
	{quillauth.ErrInvalidKey, "invalid_key"},
	{quillauth.ErrInvalidVerificationKey, "invalid_verification_key"},
	{quillauth.ErrVerificationFailure, "verification_failed"},
	{quillauth.ErrVerificationTokenExpired, "verification_token_expired"},
	{quillauth.ErrPasswordNotSet, "password_not_set"},
	{quillauth.ErrPasswordMismatch, "password_mismatch"},
	{quillauth.ErrAccountNotVerified, "account_not_verified"},
	{quillauth.ErrUnknownEmail, "unknown_email"},
	{quillauth.ErrLoginFailure, "login_failed"},
}

func (s *Server) writeFlowError(w http.ResponseWriter, flow string, err error) {
	for _, m := range flowErrorCodes {
		if errors.Is(err, m.err) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "error",
				"error":   m.code,
				"message": m.err.Error(),
			})
			return
		}
	}
	s.log.Error().Err(err).Str("flow", flow).Msg("collaborator fault")
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"error":   code,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
