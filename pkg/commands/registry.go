package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/go-logr/logr"

	"viewercore/pkg/metrics"
)

// HandlerFunc runs a command with its merged options.
type HandlerFunc func(ctx context.Context, opts Options) (any, error)

// Definition binds a command name to a handler and its default options.
type Definition struct {
	Name    string
	Fn      HandlerFunc
	Options Options
}

// Result is the eventual outcome of DispatchAsync.
type Result struct {
	Value any
	Err   error
}

// Registry maps command names to definitions and runs them one at a time.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition

	// dispatchMu serializes handlers
	dispatchMu sync.Mutex

	log logr.Logger
}

// NewRegistry creates an empty command registry.
func NewRegistry(log logr.Logger) *Registry {
	return &Registry{
		defs: make(map[string]Definition),
		log:  log,
	}
}

// Register adds a definition. Names are case-sensitive and cannot be replaced.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.Fn == nil {
		return fmt.Errorf("register command %q: name and handler are required", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("register %s: %w", def.Name, ErrDuplicateCommand)
	}
	def.Options = merge(nil, def.Options)
	r.defs[def.Name] = def
	return nil
}

// Definition returns the definition registered under name.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	def.Options = merge(nil, def.Options)
	return def, true
}

// Names returns every registered name in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command with its defaults overlaid by opts.
// Unknown names return a *NotFoundError. Handlers that find nothing to act
// on return (nil, nil).
func (r *Registry) Dispatch(ctx context.Context, name string, opts Options) (any, error) {
	def, ok := r.Definition(name)
	if !ok {
		metrics.RecordDispatch(name, metrics.OutcomeNotFound, 0)
		err := &NotFoundError{Name: name, Suggestion: r.suggest(name)}
		r.log.Info("unknown command", "command", name, "suggestion", err.Suggestion)
		return nil, err
	}

	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	value, err := def.Fn(ctx, merge(def.Options, opts))
	duration := time.Since(start)

	if err != nil {
		metrics.RecordDispatch(name, metrics.OutcomeError, duration)
		r.log.Error(err, "command failed", "command", name)
		return nil, err
	}
	metrics.RecordDispatch(name, metrics.OutcomeOK, duration)
	r.log.V(1).Info("command dispatched", "command", name, "duration", duration)
	return value, nil
}

// DispatchAsync runs Dispatch on a new goroutine. The returned channel
// receives exactly one Result and is then closed.
func (r *Registry) DispatchAsync(ctx context.Context, name string, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		value, err := r.Dispatch(ctx, name, opts)
		ch <- Result{Value: value, Err: err}
	}()
	return ch
}

// suggest returns the registered name closest to name, or "" when nothing
// is within half the name's length.
func (r *Registry) suggest(name string) string {
	best, bestDist := "", -1
	for _, candidate := range r.Names() {
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist < 0 || bestDist > max(len(name)/2, 2) {
		return ""
	}
	return best
}

// IsNotFound reports whether err came from dispatching an unknown command.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommandNotFound)
}
