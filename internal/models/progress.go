package models

import "fmt"

// ProgressStatus is the state of a user's engagement with a lesson or exercise.
// There is no persisted "not started" state: the record is absent until Started.
type ProgressStatus int16

const (
	ProgressStarted    ProgressStatus = 3
	ProgressInProgress ProgressStatus = 4
	ProgressEnded      ProgressStatus = 5
)

func (s ProgressStatus) IsValid() bool {
	return s >= ProgressStarted && s <= ProgressEnded
}

func (s ProgressStatus) String() string {
	switch s {
	case ProgressStarted:
		return "started"
	case ProgressInProgress:
		return "in_progress"
	case ProgressEnded:
		return "ended"
	default:
		return fmt.Sprintf("unknown(%d)", int16(s))
	}
}

// TransitionPolicy controls how an existing progress record may change
type TransitionPolicy string

const (
	// TransitionStrict requires strictly increasing status and treats Ended as terminal
	TransitionStrict TransitionPolicy = "strict"
	// TransitionPermissive overwrites the record unconditionally
	TransitionPermissive TransitionPolicy = "permissive"
)

func ParseTransitionPolicy(v string) (TransitionPolicy, error) {
	switch TransitionPolicy(v) {
	case TransitionStrict, TransitionPermissive:
		return TransitionPolicy(v), nil
	default:
		return "", fmt.Errorf("unknown transition policy %q", v)
	}
}

type ItemKind string

const (
	ItemLesson   ItemKind = "lesson"
	ItemExercise ItemKind = "exercise"
)

// MaxExerciseScore is awarded for an exact answer match
const MaxExerciseScore = 10.0

// RankingEntry is one leaderboard row derived from summed exercise scores
type RankingEntry struct {
	UserID       uint    `json:"user_id"`
	Username     string  `json:"username,omitempty"`
	TotalScore   float64 `json:"total_score"`
	RankPosition int     `json:"rank_position"`
}

// ScoreTotal is the raw aggregate row read from the store
type ScoreTotal struct {
	UserID     uint    `json:"user_id"`
	Username   string  `json:"username"`
	TotalScore float64 `json:"total_score"`
}
