package voicemail

// Keywords holds the static phrase lists the classifier scores against.
// All phrases must be lowercase; matching is plain substring search over the
// lowercased transcript buffer. The lists are read-only for the lifetime of
// the classifier.
type Keywords struct {
	// Indicators are phrases whose presence raises the likelihood the call
	// reached an automated answering system.
	Indicators []string

	// Greetings are short phrases whose presence near the start of a call
	// lowers that likelihood.
	Greetings []string
}

// DefaultKeywords returns the built-in phrase lists. The returned value is a
// fresh copy; callers may modify it before passing it to [WithKeywords].
func DefaultKeywords() Keywords {
	return Keywords{
		Indicators: []string{
			"voicemail",
			"voice mail",
			"message after the beep",
			"leave a message",
			"not available",
			"unavailable",
			"record your message",
			"leave your message",
			"at the tone",
			"after the tone",
			"beep",
			"mailbox",
			"voice mailbox",
			"automated message",
			"press 1",
			"press star",
			"please leave",
			"currently unavailable",
			"cannot take your call",
			"not able to answer",
		},
		Greetings: []string{
			"hello",
			"hi",
			"hey",
			"yes",
			"speaking",
			"this is",
			"how can i help",
			"good morning",
			"good afternoon",
			"good evening",
		},
	}
}

// menuCues are IVR navigation words that independently raise the score —
// phone menus are a strong voicemail-system signal even without a greeting.
var menuCues = []string{"press", "option", "menu"}
