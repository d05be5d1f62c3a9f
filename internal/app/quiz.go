package app

import (
	"sync"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

type activeSlot struct {
	question domain.Question
	stage    domain.Stage
}

// Quiz holds the live per-track question lifecycle, the per-user answer
// cache for each track's current question, and the global display flags.
// One instance is created at process start and handed to every handler.
//
// Every mutation takes the internal mutex, so individual transitions are
// atomic. Two racing admin actions on the same track remain last-write-wins
// at operation granularity, matching the permissive behavior of the event
// loop this design came from.
type Quiz struct {
	mu            sync.Mutex
	active        map[domain.Track]*activeSlot
	cachedAnswers map[domain.Track]map[string][]int

	showingLeaderboard bool
	showingVideo       string
	showingBlackout    bool
	showingSplitTracks bool
	showingEndScreen   bool
}

// NewQuiz returns a quiz with no active questions on any track.
func NewQuiz() *Quiz {
	q := &Quiz{
		active:        make(map[domain.Track]*activeSlot),
		cachedAnswers: make(map[domain.Track]map[string][]int),
	}
	for _, track := range domain.Tracks() {
		q.cachedAnswers[track] = make(map[string][]int)
	}
	return q
}

// SetQuestion activates question on its track, moves the track to
// acceptingAnswers and clears the track's answer cache. Any previously
// active question on the track is overwritten.
func (q *Quiz) SetQuestion(question domain.Question) {
	track := domain.ParseTrack(string(question.Track))
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active[track] = &activeSlot{question: question, stage: domain.StageAcceptingAnswers}
	q.cachedAnswers[track] = make(map[string][]int)
}

// CacheAnswers records (overwriting any previous submission) the answer
// indices a user checked for the track's current question. Indices are
// stored as given; range validation is the caller's job.
func (q *Quiz) CacheAnswers(userID string, choices []int, track domain.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cachedAnswers[track][userID] = choices
}

// ShowLiveResults moves the track to showingLiveResults. No-op when the
// track has no active question.
func (q *Quiz) ShowLiveResults(track domain.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if slot := q.active[track]; slot != nil {
		slot.stage = domain.StageShowingLiveResults
	}
}

// CloseForAnswers moves the track to showingLiveResultsAll and stops any
// showing video. Returns domain.ErrNoActiveQuestion when the track has no
// active question.
func (q *Quiz) CloseForAnswers(track domain.Track) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return domain.ErrNoActiveQuestion
	}
	slot.stage = domain.StageShowingLiveResultsAll
	q.showingVideo = ""
	return nil
}

// RevealAnswers moves the track to revealingAnswers, the only stage in
// which State exposes correct answer indices. Returns
// domain.ErrNoActiveQuestion when the track has no active question.
func (q *Quiz) RevealAnswers(track domain.Track) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return domain.ErrNoActiveQuestion
	}
	slot.stage = domain.StageRevealingAnswers
	return nil
}

// UnsetQuestion clears the track's slot. Never an error, whatever the
// current state.
func (q *Quiz) UnsetQuestion(track domain.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.active, track)
}

// ActiveQuestion returns the track's current question, if any.
func (q *Quiz) ActiveQuestion(track domain.Track) (domain.Question, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return domain.Question{}, false
	}
	return slot.question, true
}

// StageOf returns the track's current stage, if any question is active.
func (q *Quiz) StageOf(track domain.Track) (domain.Stage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return "", false
	}
	return slot.stage, true
}

// IsAcceptingAnswers reports whether the track still takes submissions.
// Live results may be showing while answers remain open.
func (q *Quiz) IsAcceptingAnswers(track domain.Track) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return false
	}
	return slot.stage == domain.StageAcceptingAnswers || slot.stage == domain.StageShowingLiveResults
}

// Averages returns, per answer index of the track's current question, the
// fraction of responding users who checked that index. Nil when no question
// is active. With zero respondents every fraction is 0, not NaN.
func (q *Quiz) Averages(track domain.Track) []float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot := q.active[track]
	if slot == nil {
		return nil
	}

	occurrences := make([]float64, len(slot.question.Answers))
	total := 0
	for _, choices := range q.cachedAnswers[track] {
		total++
		for _, choice := range choices {
			if choice >= 0 && choice < len(occurrences) {
				occurrences[choice]++
			}
		}
	}
	if total == 0 {
		return occurrences
	}
	for i := range occurrences {
		occurrences[i] /= float64(total)
	}
	return occurrences
}

// AllAverages returns Averages for every track.
func (q *Quiz) AllAverages() domain.PerTrack[[]float64] {
	var averages domain.PerTrack[[]float64]
	for _, track := range domain.Tracks() {
		averages.Set(track, q.Averages(track))
	}
	return averages
}

// UsersAnswers projects a user's persisted answer records onto the
// currently active questions: per track, one boolean per answer index
// marking whether the user chose it. Tracks with no active question yield
// an empty array.
func (q *Quiz) UsersAnswers(records []domain.AnswerRecord) domain.PerTrack[[]bool] {
	q.mu.Lock()
	defer q.mu.Unlock()

	submitted := domain.PerTrack[[]bool]{All: []bool{}, CSS: []bool{}, JS: []bool{}}
	for _, track := range domain.Tracks() {
		slot := q.active[track]
		if slot == nil {
			continue
		}
		marks := make([]bool, len(slot.question.Answers))
		for _, record := range records {
			if record.QuestionID != slot.question.ID {
				continue
			}
			for _, choice := range record.Choices {
				if choice >= 0 && choice < len(marks) {
					marks[choice] = true
				}
			}
			break
		}
		submitted.Set(track, marks)
	}
	return submitted
}

// State produces the serializable cross-track snapshot pushed to clients.
// Answer texts are always included; correct answer indices appear for a
// track only while that track is revealingAnswers. Correctness data must
// never leak earlier.
func (q *Quiz) State() domain.Delta {
	q.mu.Lock()
	defer q.mu.Unlock()

	questions := &domain.PerTrack[*domain.QuestionView]{}
	correct := &domain.PerTrack[[]int]{}
	for _, track := range domain.Tracks() {
		slot := q.active[track]
		if slot == nil {
			continue
		}
		answers := make([]domain.AnswerView, len(slot.question.Answers))
		for i, answer := range slot.question.Answers {
			answers[i] = domain.AnswerView{Text: answer.Text}
		}
		questions.Set(track, &domain.QuestionView{
			ID:              slot.question.ID,
			Title:           slot.question.Title,
			Text:            slot.question.Text,
			Code:            slot.question.Code,
			CodeType:        slot.question.CodeType,
			Multiple:        slot.question.Multiple,
			Scored:          slot.question.Scored,
			Track:           slot.question.Track,
			Answers:         answers,
			QuestionClosed:  slot.stage.Closed(),
			ShowLiveResults: slot.stage.ShowingResults(),
		})
		if slot.stage == domain.StageRevealingAnswers {
			correct.Set(track, slot.question.CorrectIndices())
		}
	}

	return domain.Delta{
		ActiveQuestions:    questions,
		CorrectAnswers:     correct,
		ShowingSplitTracks: domain.Ptr(q.showingSplitTracks),
	}
}

// ShowLeaderboard turns the leaderboard on and stops any showing video.
func (q *Quiz) ShowLeaderboard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingLeaderboard = true
	q.showingVideo = ""
}

// HideLeaderboard turns the leaderboard off.
func (q *Quiz) HideLeaderboard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingLeaderboard = false
}

// ShowingLeaderboard reports the leaderboard flag.
func (q *Quiz) ShowingLeaderboard() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.showingLeaderboard
}

// SetVideo sets the showing video URL; empty means none.
func (q *Quiz) SetVideo(video string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingVideo = video
}

// Video returns the showing video URL.
func (q *Quiz) Video() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.showingVideo
}

// SetBlackout sets the blackout flag.
func (q *Quiz) SetBlackout(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingBlackout = on
}

// Blackout reports the blackout flag.
func (q *Quiz) Blackout() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.showingBlackout
}

// SetSplitTracks sets split-tracks mode.
func (q *Quiz) SetSplitTracks(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingSplitTracks = on
}

// SplitTracks reports split-tracks mode.
func (q *Quiz) SplitTracks() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.showingSplitTracks
}

// SetEndScreen sets the end-screen flag.
func (q *Quiz) SetEndScreen(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.showingEndScreen = on
}

// EndScreen reports the end-screen flag.
func (q *Quiz) EndScreen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.showingEndScreen
}
