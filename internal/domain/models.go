package domain

// Track partitions quiz state so a single session can run parallel
// question tracks. TrackAll is the global track used when split-tracks
// mode is off.
type Track string

const (
	TrackAll Track = "all"
	TrackCSS Track = "css"
	TrackJS  Track = "js"
)

// Tracks returns every known track in broadcast order.
func Tracks() []Track {
	return []Track{TrackAll, TrackCSS, TrackJS}
}

// ParseTrack maps unknown or empty values to TrackAll.
func ParseTrack(s string) Track {
	switch Track(s) {
	case TrackCSS:
		return TrackCSS
	case TrackJS:
		return TrackJS
	default:
		return TrackAll
	}
}

// Stage is the lifecycle state of a track's active question.
type Stage string

const (
	StageAcceptingAnswers      Stage = "acceptingAnswers"
	StageShowingLiveResults    Stage = "showingLiveResults"
	StageShowingLiveResultsAll Stage = "showingLiveResultsAll"
	StageRevealingAnswers      Stage = "revealingAnswers"
)

// Closed reports whether the stage no longer accepts answers.
func (s Stage) Closed() bool {
	return s == StageShowingLiveResultsAll || s == StageRevealingAnswers
}

// ShowingResults reports whether any form of results is on display.
func (s Stage) ShowingResults() bool {
	return s == StageShowingLiveResults || s.Closed()
}

// Answer is a possible choice for a question.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Question is the stored quiz question document.
type Question struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Code     string   `json:"code,omitempty"`
	CodeType string   `json:"codeType,omitempty"`
	Multiple bool     `json:"multiple"`
	Scored   bool     `json:"scored"`
	Priority bool     `json:"priority"`
	Track    Track    `json:"track"`
	Answers  []Answer `json:"answers"`
}

// CorrectIndices returns the indices of the correct answers.
func (q Question) CorrectIndices() []int {
	indices := make([]int, 0, len(q.Answers))
	for i, answer := range q.Answers {
		if answer.Correct {
			indices = append(indices, i)
		}
	}
	return indices
}

// QuestionUpdate is the admin upsert payload. Key or ID select an existing
// question; with neither set a new question is created under a generated key.
type QuestionUpdate struct {
	ID       string   `json:"id,omitempty"`
	Key      string   `json:"key,omitempty"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Code     string   `json:"code,omitempty"`
	CodeType string   `json:"codeType,omitempty"`
	Multiple bool     `json:"multiple"`
	Scored   bool     `json:"scored"`
	Priority bool     `json:"priority"`
	Track    Track    `json:"track"`
	Answers  []Answer `json:"answers"`
}

// AnswerRecord is one persisted submission: which answer indices a user
// checked for a question.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	Choices    []int  `json:"choices"`
}

// User is the stored participant document.
type User struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	AvatarURL             string         `json:"avatarUrl,omitempty"`
	Score                 int            `json:"score"`
	Admin                 bool           `json:"admin"`
	OptIntoLeaderboard    bool           `json:"optIntoLeaderboard"`
	BannedFromLeaderboard bool           `json:"bannedFromLeaderboard"`
	Track                 Track          `json:"track"`
	Answers               []AnswerRecord `json:"answers,omitempty"`
}

// LeaderboardEntry is the public projection of a scoring user.
type LeaderboardEntry struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Score     int    `json:"score"`
}

// PerTrack is the {all, css, js} object shape clients consume.
type PerTrack[T any] struct {
	All T `json:"all"`
	CSS T `json:"css"`
	JS  T `json:"js"`
}

// Get returns the value for a track.
func (p PerTrack[T]) Get(track Track) T {
	switch track {
	case TrackCSS:
		return p.CSS
	case TrackJS:
		return p.JS
	default:
		return p.All
	}
}

// Set stores a value for a track.
func (p *PerTrack[T]) Set(track Track, v T) {
	switch track {
	case TrackCSS:
		p.CSS = v
	case TrackJS:
		p.JS = v
	default:
		p.All = v
	}
}

// AnswerView is the participant-safe projection of an answer. The Correct
// flag never appears here; revealed indices travel in Delta.CorrectAnswers.
type AnswerView struct {
	Text string `json:"text"`
}

// QuestionView is the participant-safe projection of an active question.
type QuestionView struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Text            string       `json:"text"`
	Code            string       `json:"code,omitempty"`
	CodeType        string       `json:"codeType,omitempty"`
	Multiple        bool         `json:"multiple"`
	Scored          bool         `json:"scored"`
	Track           Track        `json:"track"`
	Answers         []AnswerView `json:"answers"`
	QuestionClosed  bool         `json:"questionClosed"`
	ShowLiveResults bool         `json:"showLiveResults"`
}

// AdminQuestion annotates a stored question with its live status.
type AdminQuestion struct {
	Question
	Active             bool `json:"active,omitempty"`
	Closed             bool `json:"closed,omitempty"`
	RevealingAnswers   bool `json:"revealingAnswers,omitempty"`
	ShowingLiveResults bool `json:"showingLiveResults,omitempty"`
}

// AdminState is the full admin-facing aggregate view returned by every
// admin action.
type AdminState struct {
	Questions          []AdminQuestion `json:"questions"`
	ShowingLeaderboard bool            `json:"showingLeaderboard"`
	ShowingVideo       string          `json:"showingVideo"`
	ShowingBlackout    bool            `json:"showingBlackout"`
	ShowingSplitTracks bool            `json:"showingSplitTracks"`
	ShowingEndScreen   bool            `json:"showingEndScreen"`
	NaiveLoginAllowed  bool            `json:"naiveLoginAllowed"`
}
