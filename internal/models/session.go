package models

import (
	"time"
)

// SessionState represents the lifecycle state of an assessment session
type SessionState string

const (
	SessionActive     SessionState = "active"     // Countdown running, answers editable
	SessionSubmitting SessionState = "submitting" // Submit in progress, no further edits
	SessionTerminated SessionState = "terminated" // Scored and recorded
	SessionDiscarded  SessionState = "discarded"  // Torn down without a submit
)

// IsTerminal returns true if the session accepts no further actions
func (s SessionState) IsTerminal() bool {
	return s == SessionTerminated || s == SessionDiscarded
}

// SessionView is the candidate-facing snapshot of a live session.
// Questions never carry their answer key.
type SessionView struct {
	ID               string           `json:"id"`
	TopicID          string           `json:"topic_id"`
	Difficulty       Difficulty       `json:"difficulty"`
	State            SessionState     `json:"state"`
	Questions        []PublicQuestion `json:"questions"`
	Answers          []*int           `json:"answers"`
	QuestionTimes    []int            `json:"question_times"`
	CurrentIndex     int              `json:"current_index"`
	RemainingSeconds int              `json:"remaining_seconds"`
	StartedAt        time.Time        `json:"started_at"`
}

// Answered returns the number of questions with a selected option
func (v *SessionView) Answered() int {
	n := 0
	for _, a := range v.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// StartAssessmentRequest represents a request to start an assessment
type StartAssessmentRequest struct {
	TopicID    string     `json:"topic_id"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count,omitempty"` // 0 = server default
}

// AnswerRequest selects an option for the current question
type AnswerRequest struct {
	Option int `json:"option"`
}

// NavigateRequest moves the current question pointer.
// Either To or Direction ("next", "prev") is set.
type NavigateRequest struct {
	To        *int   `json:"to,omitempty"`
	Direction string `json:"direction,omitempty"`
}
