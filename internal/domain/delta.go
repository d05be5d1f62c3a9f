package domain

// Delta is a partial broadcast payload. Nil fields are omitted from the
// wire format and leave the channel's rolling state untouched when merged;
// non-nil fields replace the rolling value wholesale. This is the closed
// equivalent of the "any key may appear" object merge the clients expect.
type Delta struct {
	ActiveQuestions    *PerTrack[*QuestionView] `json:"activeQuestions,omitempty"`
	CorrectAnswers     *PerTrack[[]int]         `json:"correctAnswers,omitempty"`
	ShowingSplitTracks *bool                    `json:"showingSplitTracks,omitempty"`
	Averages           *PerTrack[[]float64]     `json:"averages,omitempty"`
	Leaderboard        *[]LeaderboardEntry      `json:"leaderboard,omitempty"`
	ShowBlackout       *bool                    `json:"showBlackout,omitempty"`
	ShowVideo          *string                  `json:"showVideo,omitempty"`
	ShowEndScreen      *bool                    `json:"showEndScreen,omitempty"`
}

// Merge overlays d onto base. Only fields present in d change; a field set
// to a pointer-to-zero value (e.g. an explicit nil leaderboard) still counts
// as present and overwrites.
func (d Delta) Merge(base *Delta) {
	if d.ActiveQuestions != nil {
		base.ActiveQuestions = d.ActiveQuestions
	}
	if d.CorrectAnswers != nil {
		base.CorrectAnswers = d.CorrectAnswers
	}
	if d.ShowingSplitTracks != nil {
		base.ShowingSplitTracks = d.ShowingSplitTracks
	}
	if d.Averages != nil {
		base.Averages = d.Averages
	}
	if d.Leaderboard != nil {
		base.Leaderboard = d.Leaderboard
	}
	if d.ShowBlackout != nil {
		base.ShowBlackout = d.ShowBlackout
	}
	if d.ShowVideo != nil {
		base.ShowVideo = d.ShowVideo
	}
	if d.ShowEndScreen != nil {
		base.ShowEndScreen = d.ShowEndScreen
	}
}

// Ptr returns a pointer to v, for filling optional Delta fields.
func Ptr[T any](v T) *T {
	return &v
}
