// Package voicemailtool exposes the voicemail heuristics from
// [pkg/voicemail] as callable tools.
//
// Three tools are exported via [Tools]:
//   - "detect_voicemail"  — one-shot scoring of a full greeting transcript.
//   - "analyze_greeting"  — extract business details from a greeting.
//   - "compose_voicemail" — build the message text to speak after the beep.
package voicemailtool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ringline/ringline/internal/tools"
	"github.com/ringline/ringline/pkg/voicemail"
)

type detectArgs struct {
	Transcript string `json:"transcript"`
}

// detectResult is the JSON-encoded output of the "detect_voicemail" tool.
type detectResult struct {
	IsVoicemail bool    `json:"is_voicemail"`
	State       string  `json:"state"`
	Confidence  float64 `json:"confidence"`
	Action      string  `json:"action"`
}

// detectHandler scores a complete transcript in one shot using a fresh
// classifier, so repeated calls never share state.
func detectHandler(_ context.Context, args string) (string, error) {
	var a detectArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("voicemailtool: failed to parse arguments: %w", err)
	}
	if a.Transcript == "" {
		return "", fmt.Errorf("voicemailtool: transcript must not be empty")
	}

	c := voicemail.New()
	res, err := c.Classify(a.Transcript)
	if err != nil {
		return "", fmt.Errorf("voicemailtool: classify: %w", err)
	}

	out, err := json.Marshal(detectResult{
		IsVoicemail: res.State == voicemail.StateDetected || res.State == voicemail.StateLeavingMessage,
		State:       string(res.State),
		Confidence:  res.Confidence,
		Action:      string(res.Action),
	})
	if err != nil {
		return "", fmt.Errorf("voicemailtool: failed to encode result: %w", err)
	}
	return string(out), nil
}

type analyzeArgs struct {
	Transcript string `json:"transcript"`
}

func analyzeHandler(_ context.Context, args string) (string, error) {
	var a analyzeArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("voicemailtool: failed to parse arguments: %w", err)
	}
	if a.Transcript == "" {
		return "", fmt.Errorf("voicemailtool: transcript must not be empty")
	}

	info := voicemail.AnalyzeGreeting(a.Transcript)
	if info.Empty() {
		return "The greeting did not contain any recognisable business details.", nil
	}
	return info.Summary(), nil
}

type composeArgs struct {
	CallerName     string `json:"caller_name"`
	CallbackNumber string `json:"callback_number"`
	Body           string `json:"body"`
	Urgent         bool   `json:"urgent"`
}

func composeHandler(_ context.Context, args string) (string, error) {
	var a composeArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("voicemailtool: failed to parse arguments: %w", err)
	}
	if a.Body == "" {
		return "", fmt.Errorf("voicemailtool: body must not be empty")
	}

	msg := voicemail.Message{
		CallerName:     a.CallerName,
		CallbackNumber: a.CallbackNumber,
		Body:           a.Body,
		Urgent:         a.Urgent,
	}
	return msg.Compose(), nil
}

// Tools returns the voicemail tools ready for registration.
func Tools() []tools.Tool {
	transcriptProp := map[string]any{
		"type":        "string",
		"description": "Transcribed audio from the far end of the call.",
	}

	return []tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "detect_voicemail",
				Description: "Score a greeting transcript and report whether it is a voicemail system or a live human.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"transcript": transcriptProp,
					},
					"required": []string{"transcript"},
				},
				EstimatedDurationMs: 1,
				MaxDurationMs:       100,
			},
			Handler: detectHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "analyze_greeting",
				Description: "Extract business name, office hours, return dates, and menu options from a voicemail greeting.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"transcript": transcriptProp,
					},
					"required": []string{"transcript"},
				},
				EstimatedDurationMs: 1,
				MaxDurationMs:       100,
			},
			Handler: analyzeHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "compose_voicemail",
				Description: "Compose the message to speak after the beep, with the callback number repeated digit by digit.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"caller_name":     map[string]any{"type": "string", "description": "Who the message is from."},
						"callback_number": map[string]any{"type": "string", "description": "Phone number to call back."},
						"body":            map[string]any{"type": "string", "description": "What the message should say."},
						"urgent":          map[string]any{"type": "boolean", "description": "Mark the message as urgent."},
					},
					"required": []string{"body"},
				},
				EstimatedDurationMs: 1,
				MaxDurationMs:       100,
			},
			Handler: composeHandler,
		},
	}
}
