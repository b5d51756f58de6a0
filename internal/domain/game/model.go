package game

import (
	"strings"
	"time"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusClosed     = "closed"
	StatusComplete   = "complete"
)

type Phase string

const (
	PhasePre  Phase = "pre"
	PhaseLive Phase = "live"
	PhasePost Phase = "post"
)

// Info is the view-model of one game.
type Info struct {
	ID          string     `json:"id"`
	League      string     `json:"league"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	TimeZone    string     `json:"time_zone"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Location    string     `json:"location"`
	Home        TeamInfo   `json:"home"`
	Away        TeamInfo   `json:"away"`
	Status      string     `json:"status"`
	HomePitcher *string    `json:"home_pitcher"`
	AwayPitcher *string    `json:"away_pitcher"`
	Weather     *Weather   `json:"weather"`
	Broadcasts  *string    `json:"broadcasts"`
	Scoring     *Scoring   `json:"scoring"`
	TeamStats   *StatsPair `json:"team_stats"`
}

type TeamInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Market string `json:"market"`
	Abbr   string `json:"abbr"`
	Record string `json:"record"`
	Runs   int    `json:"runs"`
}

// DisplayName joins market and name, e.g. "Boston Red Sox".
func (t TeamInfo) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(t.Market) + " " + strings.TrimSpace(t.Name))
}

// TeamStats holds counting stats for one side. K is batter strikeouts, SO is pitcher strikeouts.
type TeamStats struct {
	R   int `json:"r"`
	H   int `json:"h"`
	HR  int `json:"hr"`
	TB  int `json:"tb"`
	SB  int `json:"sb"`
	LOB int `json:"lob"`
	E   int `json:"e"`
	K   int `json:"k"`
	SO  int `json:"so"`
	BB  int `json:"bb"`
}

type StatsPair struct {
	Home TeamStats `json:"home"`
	Away TeamStats `json:"away"`
}

type Weather struct {
	Condition     string `json:"condition"`
	TempF         int    `json:"temp_f"`
	Humidity      int    `json:"humidity"`
	WindSpeedMPH  int    `json:"wind_speed_mph"`
	WindDirection string `json:"wind_direction"`
}

type Scoring struct {
	Innings []InningScore `json:"innings"`
}

type InningScore struct {
	Number   int `json:"number"`
	HomeRuns int `json:"home_runs"`
	AwayRuns int `json:"away_runs"`
}

// Summary is one row of a day's schedule.
type Summary struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Home        TeamInfo  `json:"home"`
	Away        TeamInfo  `json:"away"`
	Venue       string    `json:"venue"`
}

// NormalizeStatus lower-cases the provider status and folds the in-progress spellings.
func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case "inprogress", "in_progress", "live":
		return StatusInProgress
	default:
		return status
	}
}

// PhaseFromStatus expects a normalized status.
func PhaseFromStatus(status string) Phase {
	switch status {
	case StatusScheduled:
		return PhasePre
	case StatusInProgress:
		return PhaseLive
	default:
		return PhasePost
	}
}

func IsFinalStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusClosed, StatusComplete:
		return true
	default:
		return false
	}
}
