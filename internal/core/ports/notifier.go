package ports

import (
	"context"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

// ResetNotifier hands a reset secret to out-of-band delivery.
type ResetNotifier interface {
	Notify(ctx context.Context, notice domain.ResetNotice) error
}
