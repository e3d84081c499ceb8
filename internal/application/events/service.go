package events

import (
	"context"
	"encoding/json"

	"onda-backend/internal/compression"
	"onda-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service reads the escrow event stream and optionally mirrors it to the
// external compressed ledger. Mirroring is best effort: it runs after the
// owning transaction committed and a failure never rolls anything back.
type Service struct {
	DB         *gorm.DB
	Compressed compression.Client
}

// ByMint returns the event history for a mint, oldest first.
func (s *Service) ByMint(ctx context.Context, mint string) ([]domain.EscrowEvent, error) {
	var out []domain.EscrowEvent
	err := s.DB.WithContext(ctx).Where("mint = ?", mint).Order("created_at").Find(&out).Error
	return out, err
}

// Recent returns the newest events across all mints.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.EscrowEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []domain.EscrowEvent
	err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Mirror forwards one event to the compressed ledger when a client is
// configured.
func (s *Service) Mirror(ctx context.Context, event *domain.EscrowEvent) {
	if s.Compressed == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	leaf, err := s.Compressed.AddEntry(ctx, payload)
	if err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("compressed ledger mirror failed")
		return
	}
	log.Debug().Str("event_id", event.EventID.String()).Uint64("nonce", leaf.Nonce).Msg("event mirrored")
}

// MirrorMint forwards a mint's full history, used to catch the compressed
// ledger up after an outage.
func (s *Service) MirrorMint(ctx context.Context, mint string) error {
	if s.Compressed == nil {
		return nil
	}
	events, err := s.ByMint(ctx, mint)
	if err != nil {
		return err
	}
	for i := range events {
		s.Mirror(ctx, &events[i])
	}
	return nil
}
