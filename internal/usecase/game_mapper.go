package usecase

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
)

const (
	defaultLeague = "MLB"
	dateLayout    = "Monday, January 2, 2006"
	timeLayout    = "3:04 PM"
)

var locationCache sync.Map

// loadLocation returns fallback for empty or unknown zone names.
func loadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if loc, ok := locationCache.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	locationCache.Store(name, loc)
	return loc
}

// MapGameInfo decodes a boxscore or summary payload into the game view-model.
// Missing fields default to zero values; only an unparseable document fails.
func MapGameInfo(raw []byte, fallback *time.Location) (game.Info, error) {
	var doc boxscoreDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return game.Info{}, fmt.Errorf("%w: decode boxscore: %v", ErrMalformedPayload, err)
	}
	return mapGameNode(doc.Game, fallback), nil
}

func mapGameNode(g gameNode, fallback *time.Location) game.Info {
	venue := g.Venue.V
	loc := loadLocation(venue.TimeZone.String(), fallback)

	info := game.Info{
		ID:       g.ID.String(),
		League:   firstNonEmpty(g.League.V.Alias.String(), g.League.V.Name.String(), defaultLeague),
		TimeZone: loc.String(),
		Location: joinNonEmpty(", ", venue.Name.String(), firstNonEmpty(venue.City.String(), venue.Market.String()), venue.State.String()),
		Home:     mapTeam(g.Home.V),
		Away:     mapTeam(g.Away.V),
		Status:   game.NormalizeStatus(g.Status.String()),
	}

	if at, ok := parseScheduled(g.Scheduled.String()); ok {
		local := at.In(loc)
		info.ScheduledAt = at
		info.Date = local.Format(dateLayout)
		info.Time = local.Format(timeLayout)
	}

	info.HomePitcher = pitcherName(g.Home.V.ProbablePitcher)
	info.AwayPitcher = pitcherName(g.Away.V.ProbablePitcher)
	info.Weather = mapWeather(g.Weather)
	info.Broadcasts = joinBroadcasts(g.Broadcast, g.Broadcasts)
	info.Scoring = mapScoring(g.Home.V.Scoring, g.Away.V.Scoring)

	if g.Home.V.Statistics.Present || g.Away.V.Statistics.Present {
		info.TeamStats = &game.StatsPair{
			Home: teamStatsFrom(g.Home.V.Statistics.V),
			Away: teamStatsFrom(g.Away.V.Statistics.V),
		}
	}

	return info
}

func mapTeam(t teamNode) game.TeamInfo {
	return game.TeamInfo{
		ID:     t.ID.String(),
		Name:   t.Name.String(),
		Market: t.Market.String(),
		Abbr:   t.Abbr.String(),
		Record: strconv.Itoa(t.Win.count()) + "-" + strconv.Itoa(t.Loss.count()),
		Runs:   t.Runs.count(),
	}
}

// ExtractTeamStats reads one team's statistics object. It never fails;
// absent or malformed leaves are 0.
func ExtractTeamStats(raw []byte) game.TeamStats {
	var node lenient[statisticsNode]
	_ = node.UnmarshalJSON(raw)
	return teamStatsFrom(node.V)
}

func teamStatsFrom(s statisticsNode) game.TeamStats {
	hitting := s.Hitting.V.Overall.V
	return game.TeamStats{
		R:   hitting.Runs.V.Total.count(),
		H:   hitting.OnBase.V.H.count(),
		HR:  hitting.OnBase.V.HR.count(),
		TB:  hitting.OnBase.V.TB.count(),
		SB:  hitting.Steal.V.Stolen.count(),
		LOB: hitting.LOB.count(),
		E:   s.Fielding.V.Overall.V.Errors.count(),
		K:   hitting.Outcome.V.KTotal.count(),
		SO:  s.Pitching.V.Overall.V.Outs.V.KTotal.count(),
		BB:  hitting.OnBase.V.BB.count(),
	}
}

func pitcherName(p lenient[pitcherNode]) *string {
	if !p.Present {
		return nil
	}
	first := firstNonEmpty(p.V.PreferredName.String(), p.V.FirstName.String())
	name := firstNonEmpty(joinNonEmpty(" ", first, p.V.LastName.String()), p.V.FullName.String())
	if name == "" {
		return nil
	}
	return &name
}

func mapWeather(w lenient[weatherNode]) *game.Weather {
	if !w.Present {
		return nil
	}
	src := w.V.Current
	if !src.Present {
		src = w.V.Forecast
	}
	if !src.Present {
		return nil
	}
	return &game.Weather{
		Condition:     src.V.Condition.String(),
		TempF:         int(src.V.TempF),
		Humidity:      src.V.Humidity.count(),
		WindSpeedMPH:  src.V.Wind.V.SpeedMPH.count(),
		WindDirection: src.V.Wind.V.Direction.String(),
	}
}

func joinBroadcasts(single lenient[broadcastNode], many lenientList[broadcastNode]) *string {
	networks := make([]string, 0, len(many)+1)
	seen := make(map[string]struct{}, len(many)+1)
	add := func(n string) {
		if n == "" {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		networks = append(networks, n)
	}
	for _, b := range many {
		add(b.Network.String())
	}
	add(single.V.Network.String())

	if len(networks) == 0 {
		return nil
	}
	joined := strings.Join(networks, ", ")
	return &joined
}

func mapScoring(home, away lenientList[scoringNode]) *game.Scoring {
	byInning := make(map[int]*game.InningScore)
	order := make([]int, 0, len(home))
	cell := func(n int) *game.InningScore {
		if s, ok := byInning[n]; ok {
			return s
		}
		s := &game.InningScore{Number: n}
		byInning[n] = s
		order = append(order, n)
		return s
	}
	for _, s := range home {
		if isInningScore(s) {
			cell(s.Number.count()).HomeRuns = s.Runs.count()
		}
	}
	for _, s := range away {
		if isInningScore(s) {
			cell(s.Number.count()).AwayRuns = s.Runs.count()
		}
	}
	if len(order) == 0 {
		return nil
	}

	innings := make([]game.InningScore, 0, len(order))
	slices.Sort(order)
	for _, n := range order {
		innings = append(innings, *byInning[n])
	}
	return &game.Scoring{Innings: innings}
}

func isInningScore(s scoringNode) bool {
	t := strings.ToLower(s.Type.String())
	return s.Number.count() > 0 && (t == "" || t == "inning")
}

func parseScheduled(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02 15:04:05"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
