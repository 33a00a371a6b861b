package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// SessionSource defines the operation needed to preload sessions
type SessionSource interface {
	LoadSessions(ctx context.Context) ([]model.UnitSessions, error)
}

// LoadSessions preloads the sessions of the facilitator's units.
// Sessions of units that are not configured are dropped.
func LoadSessions(ctx context.Context, source SessionSource, units []model.Unit, logger *zap.Logger) ([]model.UnitSessions, error) {
	logger.Debug("Loading sessions", zap.Int("units", len(units)))

	loaded, err := source.LoadSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	codes := unitCodes(units)
	result := make([]model.UnitSessions, 0, len(loaded))
	for _, us := range loaded {
		if !codes[us.UnitCode] {
			logger.Debug("Skipping sessions of unknown unit",
				zap.String("unit_code", us.UnitCode),
				zap.Int("sessions", len(us.Upcoming)+len(us.Past)))
			continue
		}
		result = append(result, us)
	}

	logger.Debug("Sessions loaded", zap.Int("units_with_sessions", len(result)))
	return result, nil
}
