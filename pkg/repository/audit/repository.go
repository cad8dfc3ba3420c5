package audit

import (
	"context"

	"github.com/amirasaad/paylink/pkg/domain/audit"
)

// Repository is append-only.
type Repository interface {
	Append(ctx context.Context, entry *audit.Log) error
	List(ctx context.Context, limit, offset int) ([]*audit.Log, error)
}
