package voicemail

import (
	"fmt"
	"regexp"
	"strings"
)

// GreetingInfo holds details extracted from a voicemail greeting. Zero-value
// fields mean the detail was not present in the transcript.
type GreetingInfo struct {
	// BusinessName is the name announced after "you've reached" or
	// "this is the office of".
	BusinessName string `json:"business_name,omitempty"`

	// OfficeHours is a spoken time range, e.g. "9:00 am to 5:00 pm".
	OfficeHours string `json:"office_hours,omitempty"`

	// ReturnDate is an out-of-office return date, e.g. "March 12" or "3/12".
	ReturnDate string `json:"return_date,omitempty"`

	// MenuOptions maps IVR digits to their announced destination, extracted
	// from "press N for X" phrases.
	MenuOptions []MenuOption `json:"menu_options,omitempty"`
}

// MenuOption is a single "press N for X" IVR menu entry.
type MenuOption struct {
	Digit  string `json:"digit"`
	Target string `json:"target"`
}

// Empty reports whether no detail at all was extracted.
func (g GreetingInfo) Empty() bool {
	return g.BusinessName == "" && g.OfficeHours == "" && g.ReturnDate == "" && len(g.MenuOptions) == 0
}

// Summary renders the extracted details as short plain-English lines suitable
// for an LLM context window or a voice response.
func (g GreetingInfo) Summary() string {
	if g.Empty() {
		return "Standard voicemail greeting detected."
	}
	var b strings.Builder
	b.WriteString("Voicemail greeting analysis:")
	if g.BusinessName != "" {
		fmt.Fprintf(&b, "\n- Business: %s", g.BusinessName)
	}
	if g.OfficeHours != "" {
		fmt.Fprintf(&b, "\n- Hours: %s", g.OfficeHours)
	}
	if g.ReturnDate != "" {
		fmt.Fprintf(&b, "\n- Returns: %s", g.ReturnDate)
	}
	if len(g.MenuOptions) > 0 {
		fmt.Fprintf(&b, "\n- Menu options available: %d", len(g.MenuOptions))
	}
	return b.String()
}

var (
	reachedRe    = regexp.MustCompile(`(?i)you've reached\s+([^,.]{1,60})`)
	officeOfRe   = regexp.MustCompile(`(?i)this is the office of\s+([^,.]{1,60})`)
	timeRangeRe  = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:am|pm))(?:\s*(?:to|until|through|-)\s*)(\d{1,2}(?::\d{2})?\s*(?:am|pm))`)
	menuOptionRe = regexp.MustCompile(`(?i)press\s+(\d)\s+for\s+(\w+)`)
	monthDayRe   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})\b`)
	slashDateRe  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}\b`)
)

// hourCues and returnCues anchor the hours / return-date extraction so a
// stray time or date elsewhere in the greeting is not misread.
var (
	hourCues   = []string{"hours are", "open from", "monday through", "monday to"}
	returnCues = []string{"return on", "back on", "returning", "will be back"}
)

// AnalyzeGreeting extracts business details from a voicemail greeting
// transcript: who was reached, office hours, out-of-office return dates, and
// IVR menu options. All extraction is best-effort; absent details are left
// zero rather than reported as errors.
func AnalyzeGreeting(transcript string) GreetingInfo {
	var info GreetingInfo
	lower := strings.ToLower(transcript)

	if m := reachedRe.FindStringSubmatch(transcript); m != nil {
		info.BusinessName = strings.TrimSpace(m[1])
	} else if m := officeOfRe.FindStringSubmatch(transcript); m != nil {
		info.BusinessName = strings.TrimSpace(m[1])
	}

	// Cue offsets are found in the lowercased transcript, so the windows must
	// be cut from that same string: ToLower can change byte lengths (e.g.
	// U+023A lowers to a longer rune), which would shift offsets past the end
	// of the original. The extraction regexes are case-insensitive anyway.
	for _, cue := range hourCues {
		idx := strings.Index(lower, cue)
		if idx == -1 {
			continue
		}
		window := clip(lower, idx, 100)
		if m := timeRangeRe.FindStringSubmatch(window); m != nil {
			info.OfficeHours = normalizeSpaces(m[1]) + " to " + normalizeSpaces(m[2])
		}
		break
	}

	for _, cue := range returnCues {
		idx := strings.Index(lower, cue)
		if idx == -1 {
			continue
		}
		window := clip(lower, idx, 50)
		if m := monthDayRe.FindStringSubmatch(window); m != nil {
			info.ReturnDate = capitalize(strings.ToLower(m[1])) + " " + m[2]
		} else if m := slashDateRe.FindString(window); m != "" {
			info.ReturnDate = m
		}
		break
	}

	for _, m := range menuOptionRe.FindAllStringSubmatch(transcript, -1) {
		info.MenuOptions = append(info.MenuOptions, MenuOption{
			Digit:  m[1],
			Target: strings.ToLower(m[2]),
		})
	}

	return info
}

// clip returns up to n bytes of s starting at idx, without slicing past the end.
func clip(s string, idx, n int) string {
	end := idx + n
	if end > len(s) {
		end = len(s)
	}
	return s[idx:end]
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
