// Package share is the boundary between share-type managers and the tooling that
// enables or disables shares. Managers register under a protocol tag; callers look
// them up and drive them with a Share descriptor.
package share

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Share describes one shareable filesystem. Options are kept per protocol and
// are owned by the caller.
type Share struct {
	Mountpoint string
	options    map[string]string
}

func New(mountpoint string) *Share {
	return &Share{Mountpoint: mountpoint}
}

// Options returns the option string for proto, or "" when none is set.
func (s *Share) Options(proto string) string {
	return s.options[proto]
}

func (s *Share) SetOptions(proto, opts string) {
	if s.options == nil {
		s.options = make(map[string]string)
	}
	s.options[proto] = opts
}

// ClearOptions drops the option string for proto so later enables publish nothing.
func (s *Share) ClearOptions(proto string) {
	delete(s.options, proto)
}

// Ops is implemented by each share-type manager.
type Ops interface {
	Enable(ctx context.Context, s *Share) error
	Disable(ctx context.Context, s *Share) error
	IsShared(s *Share) (bool, error)
	ValidateOptions(opts string) error
	Commit(ctx context.Context) error
}

var ErrUnknownProtocol = errors.New("unknown share protocol")

type Registry struct {
	mu  sync.RWMutex
	ops map[string]Ops
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Ops)}
}

func (r *Registry) Register(proto string, ops Ops) error {
	if proto == "" || ops == nil {
		return fmt.Errorf("register %q: protocol and ops are required", proto)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[proto]; ok {
		return fmt.Errorf("register %q: already registered", proto)
	}
	r.ops[proto] = ops
	return nil
}

func (r *Registry) Lookup(proto string) (Ops, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops, ok := r.ops[proto]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, proto)
	}
	return ops, nil
}

// Protocols returns the registered protocol tags in sorted order.
func (r *Registry) Protocols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	protos := make([]string, 0, len(r.ops))
	for p := range r.ops {
		protos = append(protos, p)
	}
	slices.Sort(protos)
	return protos
}

// CommitAll asks every registered manager to apply its table. All managers are
// tried; failures are joined.
func (r *Registry) CommitAll(ctx context.Context) error {
	var errs []error
	for _, proto := range r.Protocols() {
		ops, err := r.Lookup(proto)
		if err != nil {
			continue
		}
		if err := ops.Commit(ctx); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", proto, err))
		}
	}
	return errors.Join(errs...)
}
