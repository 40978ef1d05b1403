package call

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ringline/ringline/internal/observe"
	"github.com/ringline/ringline/pkg/voicemail"
)

// Transcript fixtures that drive the classifier through known transitions.
const (
	machineGreeting = "Leave a message after the beep for our voicemail system, or press 1."
	humanGreeting   = "Hello, this is John speaking."
)

func TestBegin(t *testing.T) {
	t.Parallel()

	t.Run("creates a session", func(t *testing.T) {
		t.Parallel()

		m := NewManager(nil)
		s, err := m.Begin(context.Background(), "call-1")
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if s.CallID() != "call-1" {
			t.Errorf("CallID = %q, want call-1", s.CallID())
		}
		if got := m.ActiveCount(); got != 1 {
			t.Errorf("ActiveCount = %d, want 1", got)
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()

		m := NewManager(nil)
		if _, err := m.Begin(context.Background(), "call-1"); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if _, err := m.Begin(context.Background(), "call-1"); !errors.Is(err, ErrCallActive) {
			t.Errorf("err = %v, want ErrCallActive", err)
		}
	})

	t.Run("rejects empty call ID", func(t *testing.T) {
		t.Parallel()

		m := NewManager(nil)
		if _, err := m.Begin(context.Background(), ""); err == nil {
			t.Error("Begin accepted an empty call ID")
		}
	})
}

func TestHandleFragment_VoicemailLifecycle(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	s, err := m.Begin(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	steps := []struct {
		fragment   string
		wantState  voicemail.State
		wantAction voicemail.Action
	}{
		{machineGreeting, voicemail.StateDetected, voicemail.ActionWaitForBeep},
		{"beep", voicemail.StateLeavingMessage, voicemail.ActionLeaveMessage},
		{"message playback done", voicemail.StateCompleted, voicemail.ActionEndCall},
	}
	for i, step := range steps {
		res, err := s.HandleFragment(context.Background(), step.fragment)
		if err != nil {
			t.Fatalf("fragment %d: %v", i, err)
		}
		if res.State != step.wantState {
			t.Errorf("fragment %d: state = %q, want %q", i, res.State, step.wantState)
		}
		if res.Action != step.wantAction {
			t.Errorf("fragment %d: action = %q, want %q", i, res.Action, step.wantAction)
		}
	}

	info := s.Info()
	if info.Fragments != len(steps) {
		t.Errorf("Fragments = %d, want %d", info.Fragments, len(steps))
	}
	if !info.MessageLeft {
		t.Error("MessageLeft = false after completed lifecycle, want true")
	}
}

func TestHandleFragment_Human(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	s, err := m.Begin(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	res, err := s.HandleFragment(context.Background(), humanGreeting)
	if err != nil {
		t.Fatalf("HandleFragment: %v", err)
	}
	if res.State != voicemail.StateHuman {
		t.Errorf("state = %q, want %q", res.State, voicemail.StateHuman)
	}
	if res.Action != voicemail.ActionContinueConversation {
		t.Errorf("action = %q, want %q", res.Action, voicemail.ActionContinueConversation)
	}
}

func TestHandleFragment_InvalidInput(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	s, err := m.Begin(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err = s.HandleFragment(context.Background(), "\xff\xfe broken")
	if !errors.Is(err, voicemail.ErrInvalidInput) {
		t.Fatalf("err = %v, want voicemail.ErrInvalidInput", err)
	}
	if got := s.Info().Fragments; got != 0 {
		t.Errorf("Fragments = %d after rejected fragment, want 0", got)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	want, err := m.Begin(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	got, err := m.Get("call-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Error("Get returned a different session")
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrNoSuchCall) {
		t.Errorf("err = %v, want ErrNoSuchCall", err)
	}
}

func TestEnd(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	if _, err := m.Begin(context.Background(), "call-1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := m.End(context.Background(), "call-1"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if got := m.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d after End, want 0", got)
	}
	if err := m.End(context.Background(), "call-1"); !errors.Is(err, ErrNoSuchCall) {
		t.Errorf("second End err = %v, want ErrNoSuchCall", err)
	}

	// The same ID can be reused once the previous session ended.
	if _, err := m.Begin(context.Background(), "call-1"); err != nil {
		t.Errorf("Begin after End: %v", err)
	}
}

func TestList_SortedByCallID(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if _, err := m.Begin(context.Background(), id); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	infos := m.List()
	if len(infos) != 3 {
		t.Fatalf("List returned %d sessions, want 3", len(infos))
	}
	for i, want := range []string{"alpha", "bravo", "charlie"} {
		if infos[i].CallID != want {
			t.Errorf("List[%d] = %q, want %q", i, infos[i].CallID, want)
		}
	}
}

func TestManager_ActiveCallsGauge(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m := NewManager(met)
	if _, err := m.Begin(context.Background(), "call-1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := m.Begin(context.Background(), "call-2"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := m.End(context.Background(), "call-1"); err != nil {
		t.Fatalf("End: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, metr := range sm.Metrics {
			if metr.Name != "ringline.active_calls" {
				continue
			}
			found = true
			sum, ok := metr.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("active_calls data type = %T, want Sum[int64]", metr.Data)
			}
			if len(sum.DataPoints) != 1 {
				t.Fatalf("active_calls has %d data points, want 1", len(sum.DataPoints))
			}
			if got := sum.DataPoints[0].Value; got != 1 {
				t.Errorf("active_calls = %d, want 1", got)
			}
		}
	}
	if !found {
		t.Error("active_calls gauge not recorded")
	}
}

func TestSession_TransitionMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m := NewManager(met)
	s, err := m.Begin(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := s.HandleFragment(context.Background(), machineGreeting); err != nil {
		t.Fatalf("HandleFragment: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := map[string]bool{
		"ringline.classify.duration":    false,
		"ringline.classifier.decisions": false,
		"ringline.call.transitions":     false,
	}
	for _, sm := range rm.ScopeMetrics {
		for _, metr := range sm.Metrics {
			if _, ok := want[metr.Name]; ok {
				want[metr.Name] = true
			}
		}
	}
	for name, ok := range want {
		if !ok {
			t.Errorf("%s not recorded", name)
		}
	}
}
