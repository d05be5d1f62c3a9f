package http

import (
	"fmt"
	"net/http"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

func (h *Handlers) naiveLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}

	user, err := h.service.NaiveLogin(r.Context(), body.Name)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "uid",
		Value:    user.ID,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, user)
}

type answersResponse struct {
	AnswersSubmitted domain.PerTrack[[]bool] `json:"answersSubmitted"`
}

func (h *Handlers) submitAnswers(w http.ResponseWriter, r *http.Request, user domain.User) {
	var body struct {
		ID      string `json:"id"`
		Choices []int  `json:"choices"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	submitted, err := h.service.SubmitAnswers(r.Context(), user, body.ID, body.Choices)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, answersResponse{AnswersSubmitted: submitted})
}

func (h *Handlers) myAnswers(w http.ResponseWriter, r *http.Request, user domain.User) {
	submitted, err := h.service.UserAnswers(r.Context(), user.ID)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, answersResponse{AnswersSubmitted: submitted})
}
