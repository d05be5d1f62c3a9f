package http

import (
	"net/http"

	"github.com/poalrom/big-web-quiz/internal/app"
	"github.com/poalrom/big-web-quiz/internal/domain"
)

// Admin actions share one shape: decode the body, run the service
// transition, then answer with the refreshed admin aggregate view (or the
// JSON error contract).

func (h *Handlers) adminState(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.respondAdminState(w, r)
}

func (h *Handlers) respondAdminState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) updateQuestion(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var update domain.QuestionUpdate
	if err := parseJSONBody(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := h.service.UpsertQuestion(r.Context(), update); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	h.respondAdminState(w, r)
}

func (h *Handlers) deleteQuestion(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var body struct {
		ID string `json:"id"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.DeleteQuestion(r.Context(), body.ID); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	h.respondAdminState(w, r)
}

func (h *Handlers) setQuestion(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var body struct {
		ID       string                 `json:"id"`
		Question *domain.QuestionUpdate `json:"question"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.SetQuestion(r.Context(), body.ID, body.Question); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	h.respondAdminState(w, r)
}

// questionAction covers the transitions that target the already-active
// question by key or id.
func (h *Handlers) questionAction(action func(r *http.Request, ref app.QuestionRef) error) userHandler {
	return func(w http.ResponseWriter, r *http.Request, _ domain.User) {
		var ref app.QuestionRef
		if err := parseJSONBody(r, &ref); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := action(r, ref); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		h.respondAdminState(w, r)
	}
}

func (h *Handlers) showLeaderboard(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if err := h.service.ShowLeaderboard(r.Context()); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	h.respondAdminState(w, r)
}

func (h *Handlers) hideLeaderboard(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.service.HideLeaderboard()
	h.respondAdminState(w, r)
}

func (h *Handlers) showBlackout(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.service.SetBlackout(true)
	h.respondAdminState(w, r)
}

func (h *Handlers) hideBlackout(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.service.SetBlackout(false)
	h.respondAdminState(w, r)
}

func (h *Handlers) showSplitTracks(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.service.SetSplitTracks(true)
	h.respondAdminState(w, r)
}

func (h *Handlers) hideSplitTracks(w http.ResponseWriter, r *http.Request, _ domain.User) {
	h.service.SetSplitTracks(false)
	h.respondAdminState(w, r)
}

func (h *Handlers) showVideo(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var body struct {
		Video string `json:"video"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.service.ShowVideo(body.Video)
	h.respondAdminState(w, r)
}

func (h *Handlers) setEndScreen(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var body struct {
		Show bool `json:"show"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.service.SetEndScreen(body.Show)
	h.respondAdminState(w, r)
}
