package postgres

import (
	"context"
	"fmt"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/jmoiron/sqlx"
)

// CountyScopes resolves job scopes against the counties table.
type CountyScopes struct {
	db *sqlx.DB
}

// NewCountyScopes creates a resolver on an open database handle.
func NewCountyScopes(db *sqlx.DB) *CountyScopes {
	return &CountyScopes{db: db}
}

func (c *CountyScopes) ResolveScope(ctx context.Context, countyID string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM counties WHERE county_id = $1)`

	if err := c.db.GetContext(ctx, &exists, query, countyID); err != nil {
		return fmt.Errorf("failed to resolve county scope: %w", err)
	}

	if !exists {
		return ledger.ErrScopeNotFound
	}

	return nil
}
