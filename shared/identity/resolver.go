// shared/identity/resolver.go

// Package identity maps user supplied player identifiers to provider IDs.
package identity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Lookup asks the provider for the canonical ID of an identifier.
// A missing mapping is ("", false, nil).
type Lookup interface {
	LookupCanonicalID(ctx context.Context, identifier string) (string, bool, error)
}

// Store remembers previously resolved identifiers. *MongoStore satisfies it.
type Store interface {
	Lookup(ctx context.Context, identifier string) (string, bool, error)
	Remember(ctx context.Context, identifier, canonicalID string) error
}

type Resolver struct {
	lookup Lookup
	store  Store
	logger *zap.SugaredLogger
}

// NewResolver builds a resolver. store may be nil.
func NewResolver(lookup Lookup, store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, store: store, logger: logger.Sugar()}
}

// Resolve returns the canonical ID for raw. When the provider knows no mapping
// raw is returned unchanged. Lookup transport errors are returned to the
// caller; store errors are only logged.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if r.store != nil {
		id, ok, err := r.store.Lookup(ctx, raw)
		switch {
		case err != nil:
			r.logger.Warnw("Identity store lookup failed", "identifier", raw, "error", err)
		case ok:
			return id, nil
		}
	}

	id, ok, err := r.lookup.LookupCanonicalID(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("failed to resolve identifier %s: %w", raw, err)
	}
	if !ok || id == "" {
		return raw, nil
	}

	if r.store != nil && id != raw {
		if err := r.store.Remember(ctx, raw, id); err != nil {
			r.logger.Warnw("Failed to remember identity", "identifier", raw, "error", err)
		}
	}
	return id, nil
}
