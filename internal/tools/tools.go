// Package tools defines the agent's tool surface: a declarative
// [Definition] per tool, a [Registry] built once at startup, and an
// execution path that enforces per-tool deadlines and records metrics.
//
// The registry is passed explicitly to whatever drives tool calling; there
// is no package-level global. Tool packages (calendartool, directorytool,
// voicemailtool) each export a Tools constructor that returns ready-made
// [Tool] values wired to their dependencies.
package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/ringline/ringline/internal/observe"
)

var (
	// ErrDuplicateTool is returned by Register when a tool with the same
	// name is already present.
	ErrDuplicateTool = errors.New("tools: duplicate tool name")

	// ErrToolNotFound is returned by Execute for unregistered names.
	ErrToolNotFound = errors.New("tools: tool not found")
)

// Definition describes a tool to callers: its name, what it does, the JSON
// Schema of its arguments, and its latency contract.
type Definition struct {
	// Name uniquely identifies the tool within a registry.
	Name string `json:"name"`

	// Description tells the model when to pick this tool.
	Description string `json:"description"`

	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any `json:"parameters"`

	// EstimatedDurationMs is the typical execution time.
	EstimatedDurationMs int `json:"estimated_duration_ms,omitempty"`

	// MaxDurationMs is the hard execution deadline enforced by Execute.
	// Zero means no deadline beyond the caller's context.
	MaxDurationMs int `json:"max_duration_ms,omitempty"`
}

// Handler executes a tool call. args is the raw JSON-encoded argument
// object; the returned string is spoken back to the caller.
type Handler func(ctx context.Context, args string) (string, error)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition Definition
	Handler    Handler
}

// Registry holds the registered tools. Build it once at startup and share
// it read-only afterwards; Register and Execute are safe for concurrent
// use regardless.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	metrics *observe.Metrics
}

// NewRegistry creates an empty registry. metrics may be nil, in which case
// execution is not instrumented.
func NewRegistry(metrics *observe.Metrics) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		metrics: metrics,
	}
}

// Register adds a tool. Names must be unique and non-empty.
func (r *Registry) Register(t Tool) error {
	if t.Definition.Name == "" {
		return fmt.Errorf("tools: tool must have a non-empty name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tools: tool %q must have a handler", t.Definition.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[t.Definition.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, t.Definition.Name)
	}
	r.tools[t.Definition.Name] = t
	r.order = append(r.order, t.Definition.Name)
	return nil
}

// RegisterAll registers each tool in turn, stopping at the first error.
func (r *Registry) RegisterAll(ts []Tool) error {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// List returns the definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Execute runs the named tool with JSON-encoded args. When the tool
// declares MaxDurationMs the call runs under that deadline; exceeding it
// cancels the handler's context. Execution latency and outcome are
// recorded to the registry's metrics.
func (r *Registry) Execute(ctx context.Context, name, args string) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	if t.Definition.MaxDurationMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t.Definition.MaxDurationMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	out, err := t.Handler(ctx, args)
	elapsed := time.Since(start)

	if r.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.metrics.RecordToolCall(ctx, name, status)
		r.metrics.ToolExecutionDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(observe.Attr("tool", name)))
	}

	if err != nil {
		return "", fmt.Errorf("tools: %s: %w", name, err)
	}
	return out, nil
}
