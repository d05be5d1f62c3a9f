package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/poalrom/big-web-quiz/internal/broadcast"
	"github.com/poalrom/big-web-quiz/internal/domain"
)

// leaderboardSize caps how many users the presentation leaderboard shows.
const leaderboardSize = 10

// Service orchestrates admin actions and participant submissions: store
// lookup, quiz transition, then fan-out to the participant and presentation
// channels.
type Service struct {
	quiz         *Quiz
	questions    QuestionStore
	users        UserStore
	participants *broadcast.Channel
	presentation *broadcast.Channel

	naiveLoginAllowed bool
}

// NewService wires the quiz state machine, stores and both broadcast
// channels together.
func NewService(quiz *Quiz, questions QuestionStore, users UserStore, participants, presentation *broadcast.Channel, naiveLoginAllowed bool) *Service {
	return &Service{
		quiz:              quiz,
		questions:         questions,
		users:             users,
		participants:      participants,
		presentation:      presentation,
		naiveLoginAllowed: naiveLoginAllowed,
	}
}

// Quiz exposes the underlying state machine.
func (s *Service) Quiz() *Quiz {
	return s.quiz
}

// Users exposes the user store collaborator.
func (s *Service) Users() UserStore {
	return s.users
}

// InitialBroadcast seeds both channels with the empty quiz state so the
// first connecting clients have a rolling state to receive.
func (s *Service) InitialBroadcast() {
	s.pushParticipants(s.quiz.State())
	s.pushPresentation(s.quiz.State())
}

// QuestionRef identifies a question by human-readable key or generated id.
type QuestionRef struct {
	Key string `json:"key,omitempty"`
	ID  string `json:"id,omitempty"`
}

func (s *Service) findQuestion(ctx context.Context, ref QuestionRef) (domain.Question, error) {
	if ref.Key != "" {
		return s.questions.FindByKey(ctx, ref.Key)
	}
	return s.questions.FindByID(ctx, ref.ID)
}

// verifyActive checks the question is the one currently live on its track.
func (s *Service) verifyActive(question domain.Question) (domain.Track, error) {
	track := domain.ParseTrack(string(question.Track))
	active, ok := s.quiz.ActiveQuestion(track)
	if !ok || active.ID != question.ID {
		return track, fmt.Errorf("this isn't the active %s question: %w", track, domain.ErrNotActiveQuestion)
	}
	return track, nil
}

// State assembles the admin aggregate view: every stored question annotated
// with its live status, plus the global display flags.
func (s *Service) State(ctx context.Context) (domain.AdminState, error) {
	questions, err := s.questions.Find(ctx)
	if err != nil {
		return domain.AdminState{}, fmt.Errorf("list questions: %w", err)
	}

	annotated := make([]domain.AdminQuestion, 0, len(questions))
	for _, question := range questions {
		aq := domain.AdminQuestion{Question: question}
		track := domain.ParseTrack(string(question.Track))
		if active, ok := s.quiz.ActiveQuestion(track); ok && active.ID == question.ID {
			stage, _ := s.quiz.StageOf(track)
			aq.Active = true
			aq.Closed = stage.Closed()
			aq.RevealingAnswers = stage == domain.StageRevealingAnswers
			aq.ShowingLiveResults = stage.ShowingResults()
		}
		annotated = append(annotated, aq)
	}

	return domain.AdminState{
		Questions:          annotated,
		ShowingLeaderboard: s.quiz.ShowingLeaderboard(),
		ShowingVideo:       s.quiz.Video(),
		ShowingBlackout:    s.quiz.Blackout(),
		ShowingSplitTracks: s.quiz.SplitTracks(),
		ShowingEndScreen:   s.quiz.EndScreen(),
		NaiveLoginAllowed:  s.naiveLoginAllowed,
	}, nil
}

// UpsertQuestion validates and persists a question create-or-update.
// Answers without text are stripped; an update left with none is rejected
// before hitting the store.
func (s *Service) UpsertQuestion(ctx context.Context, update domain.QuestionUpdate) (domain.Question, error) {
	answers := make([]domain.Answer, 0, len(update.Answers))
	for _, answer := range update.Answers {
		if strings.TrimSpace(answer.Text) != "" {
			answers = append(answers, answer)
		}
	}
	if len(answers) == 0 {
		return domain.Question{}, domain.ErrNoAnswers
	}
	update.Answers = answers
	update.Track = domain.ParseTrack(string(update.Track))
	if update.Key == "" && update.ID == "" {
		update.Key = uuid.NewString()
	}
	return s.questions.Upsert(ctx, update)
}

// DeleteQuestion removes a stored question. Deleting does not deactivate
// it; use DeactivateQuestion first if it is live.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	return s.questions.Remove(ctx, id)
}

// SetQuestion activates a question, either one passed inline (upserted
// first) or one looked up by id. The presentation broadcast carries the
// per-track averages alongside the state snapshot.
func (s *Service) SetQuestion(ctx context.Context, id string, inline *domain.QuestionUpdate) error {
	var question domain.Question
	var err error
	if inline != nil {
		question, err = s.UpsertQuestion(ctx, *inline)
	} else {
		question, err = s.questions.FindByID(ctx, id)
	}
	if err != nil {
		return err
	}

	s.quiz.SetQuestion(question)

	state := s.quiz.State()
	state.Averages = domain.Ptr(s.quiz.AllAverages())
	s.pushPresentation(state)
	s.pushParticipants(s.quiz.State())
	return nil
}

// CloseQuestion stops a live question from accepting answers.
func (s *Service) CloseQuestion(ctx context.Context, ref QuestionRef) error {
	question, err := s.findQuestion(ctx, ref)
	if err != nil {
		return err
	}
	track, err := s.verifyActive(question)
	if err != nil {
		return err
	}
	if err := s.quiz.CloseForAnswers(track); err != nil {
		return err
	}
	state := s.quiz.State()
	s.pushPresentation(state)
	s.pushParticipants(state)
	return nil
}

// RevealQuestion moves a live question to revealingAnswers and triggers the
// bulk score recomputation before broadcasting, so leaderboards requested
// right after reflect the reveal.
func (s *Service) RevealQuestion(ctx context.Context, ref QuestionRef) error {
	question, err := s.findQuestion(ctx, ref)
	if err != nil {
		return err
	}
	track, err := s.verifyActive(question)
	if err != nil {
		return err
	}
	if err := s.quiz.RevealAnswers(track); err != nil {
		return err
	}

	all, err := s.questions.Find(ctx)
	if err != nil {
		return fmt.Errorf("list questions for scoring: %w", err)
	}
	if err := s.users.UpdateScores(ctx, all); err != nil {
		return fmt.Errorf("update scores: %w", err)
	}

	state := s.quiz.State()
	s.pushPresentation(state)
	s.pushParticipants(state)
	return nil
}

// DeactivateQuestion clears a live question from its track.
func (s *Service) DeactivateQuestion(ctx context.Context, ref QuestionRef) error {
	question, err := s.findQuestion(ctx, ref)
	if err != nil {
		return err
	}
	track, err := s.verifyActive(question)
	if err != nil {
		return err
	}
	s.quiz.UnsetQuestion(track)
	state := s.quiz.State()
	s.pushPresentation(state)
	s.pushParticipants(state)
	return nil
}

// ShowLiveResults switches a live question to rolling result display on the
// presentation screen. Participants keep answering, so only the
// presentation channel is notified.
func (s *Service) ShowLiveResults(ctx context.Context, ref QuestionRef) error {
	question, err := s.findQuestion(ctx, ref)
	if err != nil {
		return err
	}
	track, err := s.verifyActive(question)
	if err != nil {
		return err
	}
	s.quiz.ShowLiveResults(track)
	state := s.quiz.State()
	state.Averages = domain.Ptr(s.quiz.AllAverages())
	s.pushPresentation(state)
	return nil
}

// ShowLeaderboard fetches the top users and pushes them to the
// presentation.
func (s *Service) ShowLeaderboard(ctx context.Context) error {
	users, err := s.users.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	s.quiz.ShowLeaderboard()

	entries := make([]domain.LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = domain.LeaderboardEntry{
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
			Score:     user.Score,
		}
	}
	s.pushPresentation(domain.Delta{Leaderboard: &entries})
	return nil
}

// HideLeaderboard removes the leaderboard from the presentation, sending an
// explicit null so the rolling state forgets it.
func (s *Service) HideLeaderboard() {
	s.quiz.HideLeaderboard()
	state := s.quiz.State()
	state.Leaderboard = domain.Ptr[[]domain.LeaderboardEntry](nil)
	s.pushPresentation(state)
}

// SetBlackout toggles the presentation blackout.
func (s *Service) SetBlackout(on bool) {
	s.quiz.SetBlackout(on)
	state := s.quiz.State()
	state.ShowBlackout = domain.Ptr(on)
	s.pushPresentation(state)
}

// SetSplitTracks toggles split-tracks mode for everyone.
func (s *Service) SetSplitTracks(on bool) {
	s.quiz.SetSplitTracks(on)
	s.pushPresentation(s.quiz.State())
	s.pushParticipants(s.quiz.State())
}

// ShowVideo plays a video on the presentation; empty stops it.
func (s *Service) ShowVideo(video string) {
	s.quiz.SetVideo(video)
	state := s.quiz.State()
	state.ShowVideo = domain.Ptr(video)
	s.pushPresentation(state)
}

// SetEndScreen toggles the participant end screen.
func (s *Service) SetEndScreen(on bool) {
	s.quiz.SetEndScreen(on)
	state := s.quiz.State()
	state.ShowEndScreen = domain.Ptr(on)
	s.pushParticipants(state)
}

// SubmitAnswers records a participant's choices for a live question and
// returns their refreshed per-track submission projection. While results
// are already on the presentation screen the updated averages are pushed
// immediately so the bars move as votes arrive.
func (s *Service) SubmitAnswers(ctx context.Context, user domain.User, questionID string, choices []int) (domain.PerTrack[[]bool], error) {
	var none domain.PerTrack[[]bool]

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return none, err
	}
	track, err := s.verifyActive(question)
	if err != nil {
		return none, err
	}
	if !s.quiz.IsAcceptingAnswers(track) {
		return none, domain.ErrAnswersClosed
	}
	if !question.Multiple && len(choices) > 1 {
		return none, fmt.Errorf("question takes a single answer: %w", domain.ErrInvalidChoices)
	}
	for _, choice := range choices {
		if choice < 0 || choice >= len(question.Answers) {
			return none, fmt.Errorf("answer index %d out of range: %w", choice, domain.ErrInvalidChoices)
		}
	}

	s.quiz.CacheAnswers(user.ID, choices, track)
	if err := s.users.SaveAnswer(ctx, user.ID, domain.AnswerRecord{QuestionID: question.ID, Choices: choices}); err != nil {
		return none, fmt.Errorf("persist answer: %w", err)
	}

	if stage, ok := s.quiz.StageOf(track); ok && stage.ShowingResults() {
		s.pushPresentation(domain.Delta{Averages: domain.Ptr(s.quiz.AllAverages())})
	}

	return s.UserAnswers(ctx, user.ID)
}

// UserAnswers projects a user's persisted answers onto the active
// questions.
func (s *Service) UserAnswers(ctx context.Context, userID string) (domain.PerTrack[[]bool], error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.PerTrack[[]bool]{}, err
	}
	return s.quiz.UsersAnswers(user.Answers), nil
}

// NaiveLogin creates a throwaway user, when the deployment allows it.
func (s *Service) NaiveLogin(ctx context.Context, name string) (domain.User, error) {
	if !s.naiveLoginAllowed {
		return domain.User{}, domain.ErrLoginDisabled
	}
	user := domain.User{
		ID:                 uuid.NewString(),
		Name:               name,
		OptIntoLeaderboard: true,
		Track:              domain.TrackAll,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Broadcast failures are marshal-level only; individual connection errors
// are already isolated inside the channel. Either way admin actions never
// fail because of delivery.
func (s *Service) pushParticipants(delta domain.Delta) {
	if err := s.participants.Broadcast(delta); err != nil {
		log.Printf("participant broadcast failed: %v", err)
	}
}

func (s *Service) pushPresentation(delta domain.Delta) {
	if err := s.presentation.Broadcast(delta); err != nil {
		log.Printf("presentation broadcast failed: %v", err)
	}
}
