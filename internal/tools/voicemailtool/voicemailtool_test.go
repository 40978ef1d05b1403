package voicemailtool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ringline/ringline/internal/tools"
)

func toolByName(t *testing.T, ts []tools.Tool, name string) tools.Tool {
	t.Helper()
	for _, tool := range ts {
		if tool.Definition.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return tools.Tool{}
}

func TestDetectVoicemail(t *testing.T) {
	t.Parallel()

	detect := toolByName(t, Tools(), "detect_voicemail")

	tests := []struct {
		name       string
		transcript string
		want       bool
	}{
		{
			name:       "machine greeting",
			transcript: "Hi, you've reached John's voicemail. Please leave a message after the beep.",
			want:       true,
		},
		{
			name:       "live human",
			transcript: "Hello, this is John speaking.",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := detect.Handler(context.Background(), `{"transcript":`+mustQuote(t, tt.transcript)+`}`)
			if err != nil {
				t.Fatalf("detect_voicemail: %v", err)
			}

			var res struct {
				IsVoicemail bool    `json:"is_voicemail"`
				Confidence  float64 `json:"confidence"`
			}
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			if res.IsVoicemail != tt.want {
				t.Errorf("is_voicemail = %v (confidence %v), want %v", res.IsVoicemail, res.Confidence, tt.want)
			}
		})
	}
}

func TestDetectVoicemail_EmptyTranscript(t *testing.T) {
	t.Parallel()

	detect := toolByName(t, Tools(), "detect_voicemail")
	if _, err := detect.Handler(context.Background(), `{"transcript":""}`); err == nil {
		t.Error("detect_voicemail accepted an empty transcript")
	}
}

func TestAnalyzeGreeting(t *testing.T) {
	t.Parallel()

	analyze := toolByName(t, Tools(), "analyze_greeting")

	out, err := analyze.Handler(context.Background(),
		`{"transcript":"You've reached Acme Plumbing. Our office hours are 9:00 am to 5:00 pm. Press 1 for emergencies."}`)
	if err != nil {
		t.Fatalf("analyze_greeting: %v", err)
	}
	for _, want := range []string{"Acme Plumbing", "9:00 am to 5:00 pm"} {
		if !strings.Contains(out, want) {
			t.Errorf("analyze_greeting = %q, missing %q", out, want)
		}
	}

	out, err = analyze.Handler(context.Background(), `{"transcript":"Hello there, how are you?"}`)
	if err != nil {
		t.Fatalf("analyze_greeting: %v", err)
	}
	if !strings.Contains(out, "did not contain any recognisable business details") {
		t.Errorf("analyze_greeting = %q, want empty-details wording", out)
	}
}

func TestComposeVoicemail(t *testing.T) {
	t.Parallel()

	compose := toolByName(t, Tools(), "compose_voicemail")

	out, err := compose.Handler(context.Background(),
		`{"caller_name":"Sam","callback_number":"5551234567","body":"calling about the delivery","urgent":true}`)
	if err != nil {
		t.Fatalf("compose_voicemail: %v", err)
	}
	for _, want := range []string{"Sam", "555-123-4567", "calling about the delivery"} {
		if !strings.Contains(out, want) {
			t.Errorf("compose_voicemail = %q, missing %q", out, want)
		}
	}

	if _, err := compose.Handler(context.Background(), `{"body":""}`); err == nil {
		t.Error("compose_voicemail accepted an empty body")
	}
}

func mustQuote(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	return string(b)
}
