package provider

import (
	"fmt"
	"sort"

	"github.com/amirasaad/paylink/pkg/domain"
)

// Set is the adapter lookup used by the services; routing decides the Kind,
// the Set turns it into an implementation.
type Set struct {
	adapters map[Kind]Adapter
}

// NewSet indexes adapters by their Kind. A later adapter with the same Kind wins.
func NewSet(adapters ...Adapter) *Set {
	s := &Set{adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		s.adapters[a.Kind()] = a
	}
	return s
}

// Get returns the adapter for kind.
func (s *Set) Get(kind Kind) (Adapter, error) {
	a, ok := s.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter for provider %q: %w", kind, domain.ErrRoutingUnsupported)
	}
	return a, nil
}

// WithdrawalAdapter returns the disbursement adapter for kind. Manual
// withdrawals have no automated path and yield domain.ErrUnsupportedOperation.
func (s *Set) WithdrawalAdapter(kind Kind) (Adapter, error) {
	if kind == Manual {
		return nil, domain.ErrUnsupportedOperation
	}
	return s.Get(kind)
}

// Kinds lists registered kinds in stable order.
func (s *Set) Kinds() []Kind {
	out := make([]Kind, 0, len(s.adapters))
	for k := range s.adapters {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
