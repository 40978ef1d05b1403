package voicemail

import (
	"fmt"
	"strings"
)

// Message describes a voicemail to be spoken once the beep fires.
type Message struct {
	// CallerName is who the message is from.
	CallerName string

	// CallbackNumber is the phone number to call back, in any format.
	CallbackNumber string

	// Body is the main message content.
	Body string

	// Urgent marks the message as urgent; the composed text says so twice.
	Urgent bool
}

// Compose renders the message as natural speech for a TTS engine. The
// callback number is spoken once in grouped form and repeated digit by digit
// so a listener can write it down.
func (m Message) Compose() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello, this is %s calling", m.CallerName)
	if m.Urgent {
		b.WriteString(" with an urgent message")
	}
	fmt.Fprintf(&b, ". %s. ", m.Body)
	fmt.Fprintf(&b, "Please call me back at %s. ", SpeakableNumber(m.CallbackNumber, false))
	if m.Urgent {
		b.WriteString("Again, this is urgent. ")
	}
	fmt.Fprintf(&b, "I repeat, the callback number is %s. ", SpeakableNumber(m.CallbackNumber, true))
	b.WriteString("Thank you and have a great day.")

	return b.String()
}

// SpeakableNumber formats a phone number for text-to-speech. US 10-digit and
// 1-prefixed 11-digit numbers are grouped as area-exchange-line; slow mode
// spaces out every digit so the number can be transcribed by the listener.
// Numbers in any other format are passed through (or digit-spaced when slow).
func SpeakableNumber(number string, slow bool) string {
	var digits []byte
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	d := string(digits)

	spaced := func(s string) string {
		parts := make([]string, len(s))
		for i := range s {
			parts[i] = string(s[i])
		}
		return strings.Join(parts, " ")
	}

	switch {
	case len(d) == 10:
		if slow {
			return spaced(d)
		}
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	case len(d) == 11 && d[0] == '1':
		if slow {
			return spaced(d)
		}
		return "1-" + d[1:4] + "-" + d[4:7] + "-" + d[7:]
	default:
		if slow {
			return spaced(d)
		}
		return number
	}
}
