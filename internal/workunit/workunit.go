package workunit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	StatusNeedsApproval = "needs_approval"
	StatusSuccess       = "success"
)

var ErrUnitNotFound = errors.New("work unit not found")

// Result is the structured output of a unit invocation. A "status" key equal
// to StatusNeedsApproval suspends the job for human review instead of
// completing it.
type Result map[string]any

func (r Result) NeedsApproval() bool {
	status, _ := r["status"].(string)
	return status == StatusNeedsApproval
}

// Func is a single named computation. It receives the job input, including the
// topic and, on retries, the human feedback under the "feedback" key.
type Func func(ctx context.Context, input map[string]any) (Result, error)

// Error is a classified collaborator failure recorded on the job record.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind string, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the error kind of a unit failure, or "UnitError" for
// unclassified errors.
func KindOf(err error) string {
	var unitErr *Error
	if errors.As(err, &unitErr) {
		return unitErr.Kind
	}
	return "UnitError"
}

// Registry maps unit names to invocation functions. Units are registered at
// startup and looked up by exact key.
type Registry struct {
	mu    sync.RWMutex
	units map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{units: make(map[string]Func)}
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[name] = fn
}

func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.units[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
	}
	return fn, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// Invoke looks up and runs the named unit.
func (r *Registry) Invoke(ctx context.Context, name string, input map[string]any) (Result, error) {
	fn, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return fn(ctx, input)
}
