package api

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"taskhub/internal/models"
)

// audit records an administrative event, best effort. Skipped entirely when no
// store is wired (unit tests).
func (a *API) audit(ctx context.Context, actorID *uuid.UUID, action, targetType, targetID string, meta map[string]any) {
	if a.store == nil {
		return
	}

	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	if err := a.store.Audit(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
