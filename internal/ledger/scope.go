package ledger

import "context"

// ScopeResolver reports whether a county scope is registered with the
// platform. Jobs are partitioned by county; a submission against an
// unregistered county is rejected before a row is created.
type ScopeResolver interface {
	// ResolveScope returns nil when the county is known and
	// ErrScopeNotFound otherwise.
	ResolveScope(ctx context.Context, countyID string) error
}

// StaticScopes resolves scopes against a fixed set of county ids.
type StaticScopes map[string]struct{}

// NewStaticScopes builds a StaticScopes set from the given county ids.
func NewStaticScopes(countyIDs ...string) StaticScopes {
	s := make(StaticScopes, len(countyIDs))
	for _, id := range countyIDs {
		s[id] = struct{}{}
	}
	return s
}

func (s StaticScopes) ResolveScope(_ context.Context, countyID string) error {
	if _, ok := s[countyID]; !ok {
		return ErrScopeNotFound
	}
	return nil
}
