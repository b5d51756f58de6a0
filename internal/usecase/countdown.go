package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
)

type Countdown struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

var countdownLayouts = []string{
	"Monday, January 2, 2006 3:04 PM",
	"Monday January 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
}

var countdownDateLayouts = []string{
	"Monday, January 2, 2006",
	"Monday January 2, 2006",
	"January 2, 2006",
}

// ComputeCountdown returns whole days and remaining hours until the given
// local date and time. Unparseable input logs a warning and yields zero.
func ComputeCountdown(ctx context.Context, dateStr, timeStr, zone string, now time.Time, logger *logging.Logger) Countdown {
	loc := loadLocation(zone, time.UTC)
	dateStr = strings.TrimSpace(dateStr)
	timeStr = clockPart(timeStr)

	target, ok := parseLocalStart(dateStr, timeStr, loc)
	if !ok {
		logger.WarnContext(ctx, "countdown parse failed", "date", dateStr, "time", timeStr, "tz", zone)
		return Countdown{}
	}

	remaining := target.Sub(now)
	if remaining <= 0 {
		return Countdown{}
	}
	totalHours := int(remaining / time.Hour)
	return Countdown{Days: totalHours / 24, Hours: totalHours % 24}
}

func parseLocalStart(dateStr, timeStr string, loc *time.Location) (time.Time, bool) {
	combined := dateStr + " " + timeStr
	for _, layout := range countdownLayouts {
		if t, err := time.ParseInLocation(layout, combined, loc); err == nil {
			return t, true
		}
	}

	clock, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}, false
	}
	for _, layout := range countdownDateLayouts {
		day, err := time.ParseInLocation(layout, dateStr, loc)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
	}
	return time.Time{}, false
}

// clockPart keeps "7:05 PM" out of strings like "7:05 PM EDT".
func clockPart(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}
