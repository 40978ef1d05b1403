package voicemail

import (
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// detectThreshold is the confidence at which a voicemail system is
	// considered detected.
	detectThreshold = 0.7

	// uncertainThreshold is the confidence below which a live human is
	// assumed. Between the two thresholds the classifier keeps listening.
	uncertainThreshold = 0.4

	// saturationHits is the number of distinct indicator phrases that
	// saturates confidence at 1.0. A single shared word ("unavailable") is
	// weak evidence; three independent cues are treated as conclusive.
	saturationHits = 3

	// greetingWindowChars bounds the buffer length within which greeting
	// phrases are diagnostic. Greetings only matter near the start of a call.
	greetingWindowChars = 50

	// greetingDamping is applied to the confidence when a greeting phrase
	// fires inside the window — greetings strongly suggest a live person.
	greetingDamping = 0.3

	// longGreetingWords is the buffer word count above which the score gets a
	// small boost; voicemail greetings run long.
	longGreetingWords = 20

	// beepTimeoutWords is the buffer word count past which the classifier
	// stops waiting for an explicit beep and proceeds to leave the message.
	beepTimeoutWords = 100
)

// Classifier scores a running call transcript against keyword lists and
// tracks the per-call voicemail state machine. One Classifier exists per call
// attempt; it holds no shared state and must only be touched by the goroutine
// handling that call's transcript stream.
type Classifier struct {
	keywords Keywords

	state       State
	buffer      string
	confidence  float64
	messageLeft bool
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithKeywords replaces the built-in phrase lists. Phrases must be lowercase.
func WithKeywords(k Keywords) Option {
	return func(c *Classifier) { c.keywords = k }
}

// New creates a Classifier in the listening state with the default keyword
// lists.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		keywords: DefaultKeywords(),
		state:    StateListening,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Classifier) State() State { return c.state }

// Confidence returns the most recent voicemail-likelihood estimate.
func (c *Classifier) Confidence() float64 { return c.confidence }

// Transcript returns the accumulated transcript buffer.
func (c *Classifier) Transcript() string { return c.buffer }

// MessageLeft reports whether a message has been delivered on this call.
func (c *Classifier) MessageLeft() bool { return c.messageLeft }

// Classify appends fragment to the transcript buffer, re-derives the
// voicemail confidence, and advances the state machine. It returns the
// resulting state, confidence, and the recommended action for the
// call-control layer.
//
// Fragments that are not valid UTF-8 text are rejected with
// [ErrInvalidInput]; the session state is left unchanged. Once the classifier
// reaches a terminal state, further calls are no-ops that echo that state
// with [ActionContinue].
func (c *Classifier) Classify(fragment string) (res Result, err error) {
	if !utf8.ValidString(fragment) {
		return Result{}, ErrInvalidInput
	}

	// Any internal failure degrades to "unable to determine, proceed with
	// caution" instead of dropping the call: a false "probably human" wastes
	// a sentence, a crash loses the whole call.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("voicemail: classification panic", "recovered", r)
			c.state = StateError
			res = Result{State: StateError, Confidence: c.confidence, Action: ActionContinue}
			err = nil
		}
	}()

	if c.state.Terminal() {
		return Result{State: c.state, Confidence: c.confidence, Action: ActionContinue}, nil
	}

	c.append(fragment)

	switch c.state {
	case StateListening:
		c.confidence = c.score()
		switch {
		case c.confidence >= detectThreshold:
			c.state = StateDetected
			return Result{State: c.state, Confidence: c.confidence, Action: ActionWaitForBeep}, nil
		case c.confidence >= uncertainThreshold:
			return Result{State: c.state, Confidence: c.confidence, Action: ActionContinue}, nil
		default:
			c.state = StateHuman
			return Result{State: c.state, Confidence: c.confidence, Action: ActionContinueConversation}, nil
		}

	case StateDetected:
		c.confidence = c.score()
		cueFired := strings.Contains(strings.ToLower(fragment), "beep")
		if cueFired || c.wordCount() > beepTimeoutWords {
			c.state = StateLeavingMessage
			return Result{State: c.state, Confidence: c.confidence, Action: ActionLeaveMessage}, nil
		}
		return Result{State: c.state, Confidence: c.confidence, Action: ActionContinue}, nil

	case StateLeavingMessage:
		// The next fragment after the message started playing is treated as
		// "message delivered". There is no delivery acknowledgement signal to
		// gate this on.
		c.state = StateCompleted
		c.messageLeft = true
		return Result{State: c.state, Confidence: c.confidence, Action: ActionEndCall}, nil
	}

	return Result{State: c.state, Confidence: c.confidence, Action: ActionContinue}, nil
}

// Reset returns the classifier to its initial listening state with an empty
// buffer. Used only when starting a new call attempt; never mid-call.
// Calling Reset repeatedly is idempotent.
func (c *Classifier) Reset() {
	c.state = StateListening
	c.buffer = ""
	c.confidence = 0
	c.messageLeft = false
}

// append grows the transcript buffer, keeping fragments in arrival order.
// Fragments are separated by a single space so word counting stays sane.
func (c *Classifier) append(fragment string) {
	if c.buffer == "" {
		c.buffer = fragment
		return
	}
	c.buffer += " " + fragment
}

// wordCount returns the number of whitespace-separated words in the buffer.
func (c *Classifier) wordCount() int {
	return len(strings.Fields(c.buffer))
}

// score re-derives the voicemail confidence from the full buffer. It is a
// pure function of the buffer and the keyword lists — nothing is carried over
// from previous calls.
func (c *Classifier) score() float64 {
	lower := strings.ToLower(c.buffer)

	hits := 0
	for _, phrase := range c.keywords.Indicators {
		if strings.Contains(lower, phrase) {
			hits++
		}
	}
	confidence := math.Min(float64(hits)/saturationHits, 1.0)

	// Greeting phrases are only diagnostic near the start of a call; once the
	// buffer grows past the window a "hello" buried in a long IVR prompt
	// means nothing.
	if len(lower) < greetingWindowChars {
		for _, phrase := range c.keywords.Greetings {
			if strings.Contains(lower, phrase) {
				confidence *= greetingDamping
				break
			}
		}
	}

	// Two independent, order-insensitive adjustments.
	if c.wordCount() > longGreetingWords {
		confidence += 0.1
	}
	for _, cue := range menuCues {
		if strings.Contains(lower, cue) {
			confidence += 0.2
			break
		}
	}

	return math.Min(math.Max(confidence, 0), 1)
}
