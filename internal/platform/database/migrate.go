package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
)

// Migrate applies every .sql file in the given filesystem in lexical
// order. Files are written to be idempotent (CREATE ... IF NOT EXISTS),
// so re-running the full set on startup is safe and no version table is
// kept.
func (p *Pool) Migrate(ctx context.Context, migrations fs.FS) error {
	if p == nil || p.db == nil {
		return nil
	}

	names, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := p.db.ExecContext(ctx, string(raw)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
