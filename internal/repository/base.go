package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultQueryTimeout bounds every store call that has no earlier deadline.
const DefaultQueryTimeout = 5 * time.Second

// Option configures a repository.
type Option func(*base)

// WithQueryTimeout overrides DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.timeout = d
		}
	}
}

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, opts []Option) base {
	b := base{db: db, timeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// conn returns a session bound to ctx with the query deadline applied.
// The returned cancel func must be called once the call completes.
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}
