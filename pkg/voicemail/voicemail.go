// Package voicemail decides whether the far end of a phone call is an
// automated answering system and drives a small per-call state machine
// toward "leave a message" and "end call" signals.
//
// The central type is [Classifier]: one instance per call attempt, fed
// cumulative transcript fragments by an external speech-to-text stream.
// Classification is pure in-memory heuristics — keyword scoring over the
// lowercased transcript buffer — so there is no I/O and no retry semantics.
//
// A Classifier is owned by the single goroutine handling its call and is not
// safe for concurrent use. Create one per call and discard it when the call
// ends.
package voicemail

import "errors"

// ErrInvalidInput is returned by [Classifier.Classify] when a fragment is not
// valid text. The classifier state is left unchanged.
var ErrInvalidInput = errors.New("voicemail: fragment is not valid text")

// State is the classifier's position in the per-call state machine.
//
// States advance only forward along listening → detected → leaving_message →
// completed, or divert once to human, or to error. The only way back to
// listening is an explicit [Classifier.Reset].
type State string

const (
	// StateListening means the call is still being scored.
	StateListening State = "listening"

	// StateDetected means the transcript crossed the detection threshold and
	// the caller should wait for an audio cue before speaking.
	StateDetected State = "detected"

	// StateLeavingMessage means the beep (or timeout fallback) fired and the
	// prepared message should be delivered now.
	StateLeavingMessage State = "leaving_message"

	// StateCompleted means the message has been delivered. Terminal.
	StateCompleted State = "completed"

	// StateHuman means a live person answered. Terminal.
	StateHuman State = "human"

	// StateError means classification failed internally and the call should
	// proceed as if a human answered. Terminal.
	StateError State = "error"
)

// Terminal reports whether s accepts no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateHuman, StateError:
		return true
	}
	return false
}

// Action is the recommendation returned to the call-control layer alongside
// each classification result. The vocabulary is closed and small; callers
// should treat unknown values as [ActionContinue].
type Action string

const (
	// ActionWaitForBeep tells the caller to hold until an audio cue fires.
	ActionWaitForBeep Action = "wait_for_beep"

	// ActionLeaveMessage tells the caller to speak the prepared message.
	ActionLeaveMessage Action = "leave_message"

	// ActionEndCall tells the caller to hang up.
	ActionEndCall Action = "end_call"

	// ActionContinueConversation tells the caller a live person answered and
	// normal conversation should proceed.
	ActionContinueConversation Action = "continue_conversation"

	// ActionContinue tells the caller to keep feeding transcript fragments.
	ActionContinue Action = "continue"
)

// Result is the outcome of a single [Classifier.Classify] call.
type Result struct {
	// State is the classifier state after processing the fragment.
	State State `json:"state"`

	// Confidence is the voicemail-likelihood estimate in [0, 1]. It is
	// re-derived from the full buffer on each call, never accumulated. It is
	// not a probability in the statistical sense.
	Confidence float64 `json:"confidence"`

	// Action is the recommended next step for the call-control layer.
	Action Action `json:"action"`
}
