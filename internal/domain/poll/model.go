package poll

import (
	"math"
	"strings"
)

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func ParseSide(raw string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideHome:
		return SideHome, true
	case SideAway:
		return SideAway, true
	default:
		return "", false
	}
}

type Tally struct {
	Home int64
	Away int64
}

type Summary struct {
	Home    int64 `json:"home"`
	Away    int64 `json:"away"`
	Total   int64 `json:"total"`
	HomePct int   `json:"home_pct"`
	AwayPct int   `json:"away_pct"`
}

// Results rounds each side's share to a whole percent; both are 0 when nobody voted.
func Results(t Tally) Summary {
	s := Summary{Home: max(t.Home, 0), Away: max(t.Away, 0)}
	s.Total = s.Home + s.Away
	if s.Total == 0 {
		return s
	}
	s.HomePct = int(math.Round(float64(s.Home) / float64(s.Total) * 100))
	s.AwayPct = int(math.Round(float64(s.Away) / float64(s.Total) * 100))
	return s
}
