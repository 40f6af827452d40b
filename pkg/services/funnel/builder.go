package funnel

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

type Builder interface {
	Build(ctx context.Context, events []domain.Event) []domain.SessionSummary
}

type builder struct{}

func NewBuilder() Builder {
	return &builder{}
}

// Build returns one summary per distinct session, ordered by session id.
// A stage is reached when the session has at least one event of that type.
// Events without a session id belong to no session and are left out.
func (b *builder) Build(ctx context.Context, events []domain.Event) []domain.SessionSummary {
	sessions := make(map[string]*domain.SessionSummary)
	unsessioned := 0
	for _, e := range events {
		if strings.TrimSpace(e.UserSession) == "" {
			unsessioned++
			continue
		}

		s, ok := sessions[e.UserSession]
		if !ok {
			s = &domain.SessionSummary{
				UserSession: e.UserSession,
				UserID:      e.UserID,
			}
			sessions[e.UserSession] = s
		}

		switch e.EventType {
		case domain.EventTypeView:
			s.ViewCount++
		case domain.EventTypeCart:
			s.CartCount++
		case domain.EventTypePurchase:
			s.PurchaseCount++
		}
	}

	keys := slices.Sorted(maps.Keys(sessions))

	summaries := make([]domain.SessionSummary, 0, len(keys))
	for _, k := range keys {
		s := sessions[k]
		s.HasView = s.ViewCount > 0
		s.HasCart = s.CartCount > 0
		s.HasPurchase = s.PurchaseCount > 0
		summaries = append(summaries, *s)
	}

	zerolog.Ctx(ctx).Info().
		Int("sessions", len(summaries)).
		Int("unsessioned_events", unsessioned).
		Msg("session funnel built")
	return summaries
}
