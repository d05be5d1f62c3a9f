package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

type errorResponse struct {
	Err string `json:"err"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Err: err.Error()})
}

// errorStatus maps domain errors onto the JSON error contract: 404 for
// missing or inactive questions, 400 for validation, 429 for the connection
// ceiling, 500 for everything unexpected (including the guarded
// ErrNoActiveQuestion, which callers should never let reach a client).
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrNotActiveQuestion),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoAnswers),
		errors.Is(err, domain.ErrInvalidChoices),
		errors.Is(err, domain.ErrAnswersClosed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTooManyConnections):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLoginDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func parseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// userID pulls the caller identity from the uid cookie, falling back to the
// X-User-ID header for non-browser clients. Login proper is handled
// elsewhere; this is just enough identity for connection limits and the
// admin role check.
func userID(r *http.Request) string {
	if cookie, err := r.Cookie("uid"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get("X-User-ID")
}

type userHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

// withUser resolves the calling user or rejects with 401.
func (h *Handlers) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := userID(r)
		if id == "" {
			writeError(w, http.StatusUnauthorized, domain.ErrUserNotFound)
			return
		}
		user, err := h.service.Users().FindByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUserNotFound)
			return
		}
		next(w, r, user)
	}
}

// withAdmin additionally requires the admin role.
func (h *Handlers) withAdmin(next userHandler) http.HandlerFunc {
	return h.withUser(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !user.Admin {
			writeError(w, http.StatusForbidden, errors.New("admin only"))
			return
		}
		next(w, r, user)
	})
}
