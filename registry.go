package finmon

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Entry is a logical name of the registry.
type Entry struct {
	Name        string
	Description string
	Plan        Plan
}

// Kind returns "series" or "frame", depending on what the entry produces.
func (e Entry) Kind() string {
	if _, ok := e.Plan.(FramePlan); ok {
		return "frame"
	}
	return "series"
}

// Registry is the fixed set of logical names a query can ask for, and the
// adapters they read from.
//
// A Registry is read only once built.
type Registry struct {
	sources map[string]Fetcher
	entries map[string]Entry
}

// NewRegistry checks and indexes entries.
//
// Every plan must be a SeriesPlan or a FramePlan, read only from the given
// sources, and merge at least two members. All problems are reported at once.
func NewRegistry(sources map[string]Fetcher, entries ...Entry) (*Registry, error) {
	r := &Registry{sources: maps.Clone(sources), entries: make(map[string]Entry, len(entries))}
	var errs []error
	for _, e := range entries {
		if err := r.check(e); err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", e.Name, err))
			continue
		}
		r.entries[e.Name] = e
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) check(e Entry) error {
	if e.Name == "" {
		return errors.New("empty name")
	}
	if _, exists := r.entries[e.Name]; exists {
		return errors.New("duplicate name")
	}
	switch p := e.Plan.(type) {
	case SeriesPlan:
	case Merge:
		if len(p.Members) < 2 {
			return fmt.Errorf("merge has %d members: %w", len(p.Members), ErrAlignArity)
		}
		if p.Mode != Inner && p.Mode != Outer {
			return fmt.Errorf("invalid join mode %v", p.Mode)
		}
	case Rebased:
		if len(p.Members) < 2 {
			return fmt.Errorf("rebased has %d members: %w", len(p.Members), ErrAlignArity)
		}
	case FramePlan:
	default:
		return fmt.Errorf("unsupported plan %T", e.Plan)
	}
	var errs []error
	for _, d := range e.Plan.Sources() {
		if _, ok := r.sources[d.Source]; !ok {
			errs = append(errs, fmt.Errorf("no adapter for %s", d))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the entry called name.
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return e, nil
}

// Names returns all logical names, sorted.
func (r *Registry) Names() []string { return slices.Sorted(maps.Keys(r.entries)) }

// Entries returns all entries, sorted by name.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for _, name := range r.Names() {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Sources returns the adapters by source name.
func (r *Registry) Sources() map[string]Fetcher { return maps.Clone(r.sources) }
