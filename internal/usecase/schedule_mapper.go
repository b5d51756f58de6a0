package usecase

import (
	"fmt"
	"slices"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
)

// MapSchedule decodes a daily schedule payload, ordered by first pitch.
func MapSchedule(raw []byte) ([]game.Summary, error) {
	var doc scheduleDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode schedule: %v", ErrMalformedPayload, err)
	}

	out := make([]game.Summary, 0, len(doc.Games))
	for _, g := range doc.Games {
		id := g.ID.String()
		if id == "" {
			continue
		}
		at, _ := parseScheduled(g.Scheduled.String())
		out = append(out, game.Summary{
			ID:          id,
			Status:      game.NormalizeStatus(g.Status.String()),
			ScheduledAt: at,
			Home:        mapTeam(g.Home.V),
			Away:        mapTeam(g.Away.V),
			Venue:       g.Venue.V.Name.String(),
		})
	}
	slices.SortStableFunc(out, func(a, b game.Summary) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})
	return out, nil
}

// scheduleLabel is the picker text, e.g. "Boston Red Sox @ New York Yankees 7:05 PM".
func scheduleLabel(s game.Summary, loc *time.Location) string {
	label := s.Away.DisplayName() + " @ " + s.Home.DisplayName()
	if !s.ScheduledAt.IsZero() {
		label += " " + s.ScheduledAt.In(loc).Format(timeLayout)
	}
	return label
}
