// Package http exposes the quiz service over its three transports: plain
// JSON endpoints for admin actions and answer submission, server-sent
// events for the presentation display, and long-poll plus websocket streams
// for participants.
package http

import (
	"net/http"

	"github.com/poalrom/big-web-quiz/internal/app"
	"github.com/poalrom/big-web-quiz/internal/broadcast"
)

// Handlers binds the orchestration service and both broadcast channels to
// the HTTP surface.
type Handlers struct {
	service      *app.Service
	participants *broadcast.Channel
	presentation *broadcast.Channel
}

func NewHandlers(service *app.Service, participants, presentation *broadcast.Channel) *Handlers {
	return &Handlers{
		service:      service,
		participants: participants,
		presentation: presentation,
	}
}

// Router wires every route. Admin routes require the admin role; the rest
// require any resolved user.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /login/naive", h.naiveLogin)

	mux.HandleFunc("GET /listen", h.withUser(h.longPoll))
	mux.HandleFunc("GET /ws", h.withUser(h.serveWS))
	mux.HandleFunc("GET /presentation/listen", h.withUser(h.presentationSSE))

	mux.HandleFunc("POST /me/answers", h.withUser(h.submitAnswers))
	mux.HandleFunc("GET /me/answers", h.withUser(h.myAnswers))

	mux.HandleFunc("GET /admin/state", h.withAdmin(h.adminState))
	mux.HandleFunc("POST /admin/question-update", h.withAdmin(h.updateQuestion))
	mux.HandleFunc("POST /admin/question-delete", h.withAdmin(h.deleteQuestion))
	mux.HandleFunc("POST /admin/question-set", h.withAdmin(h.setQuestion))
	mux.HandleFunc("POST /admin/question-close", h.withAdmin(h.questionAction(func(r *http.Request, ref app.QuestionRef) error {
		return h.service.CloseQuestion(r.Context(), ref)
	})))
	mux.HandleFunc("POST /admin/question-reveal", h.withAdmin(h.questionAction(func(r *http.Request, ref app.QuestionRef) error {
		return h.service.RevealQuestion(r.Context(), ref)
	})))
	mux.HandleFunc("POST /admin/question-deactivate", h.withAdmin(h.questionAction(func(r *http.Request, ref app.QuestionRef) error {
		return h.service.DeactivateQuestion(r.Context(), ref)
	})))
	mux.HandleFunc("POST /admin/question-live-results", h.withAdmin(h.questionAction(func(r *http.Request, ref app.QuestionRef) error {
		return h.service.ShowLiveResults(r.Context(), ref)
	})))
	mux.HandleFunc("POST /admin/show-leaderboard", h.withAdmin(h.showLeaderboard))
	mux.HandleFunc("POST /admin/hide-leaderboard", h.withAdmin(h.hideLeaderboard))
	mux.HandleFunc("POST /admin/show-blackout", h.withAdmin(h.showBlackout))
	mux.HandleFunc("POST /admin/hide-blackout", h.withAdmin(h.hideBlackout))
	mux.HandleFunc("POST /admin/show-split-tracks", h.withAdmin(h.showSplitTracks))
	mux.HandleFunc("POST /admin/hide-split-tracks", h.withAdmin(h.hideSplitTracks))
	mux.HandleFunc("POST /admin/show-video", h.withAdmin(h.showVideo))
	mux.HandleFunc("POST /admin/end-screen", h.withAdmin(h.setEndScreen))

	return mux
}
