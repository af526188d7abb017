package port

import (
	"context"

	"github.com/nk2109/pantry/internal/core/domain"
)

type ChangeNotifier interface {
	// PublishChange fans a store-change event out to live views.
	PublishChange(ctx context.Context, event domain.ChangeEvent) error

	// AppendAudit records a buy audit entry for future replay.
	AppendAudit(ctx context.Context, rec domain.AuditRecord) error
}
