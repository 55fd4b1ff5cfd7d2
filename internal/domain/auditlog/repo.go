package auditlog

import (
	"context"
)

// Store persists audit entries. Recent returns entries newest first.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, q Query) ([]*Entry, error)
}
