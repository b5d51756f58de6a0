package usecase

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// Provider payloads are decoded once into these schemas. Leaves use the
// flexible types below so missing or oddly shaped fields collapse to zero
// values instead of failing the whole document.

// flexInt accepts 3, 3.0, "3" and {"total": 3}. Anything else decodes to 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var obj struct {
			Total flexInt `json:"total"`
		}
		if err := sonic.Unmarshal(data, &obj); err == nil {
			*n = obj.Total
		}
		return nil
	case '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = flexInt(math.Trunc(f))
	return nil
}

// count is the value clamped at zero.
func (n flexInt) count() int {
	return max(int(n), 0)
}

// flexString accepts strings and numbers; other shapes decode to "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var v string
		if err := sonic.Unmarshal(data, &v); err == nil {
			*s = flexString(strings.TrimSpace(v))
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = flexString(data)
	}
	return nil
}

func (s flexString) String() string { return string(s) }

// lenient decodes T when possible and records presence; a malformed node
// leaves the zero value with Present=false.
type lenient[T any] struct {
	V       T
	Present bool
}

func (l *lenient[T]) UnmarshalJSON(data []byte) error {
	var zero T
	l.V, l.Present = zero, false
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var v T
	if err := sonic.Unmarshal(data, &v); err != nil {
		return nil
	}
	l.V, l.Present = v, true
	return nil
}

// lenientList decodes each element independently and drops the ones that fail.
type lenientList[T any] []T

func (l *lenientList[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := sonic.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// elementList is like lenientList but rejects a value that is not an array.
type elementList[T any] []T

func (l *elementList[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := sonic.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

type boxscoreDocument struct {
	Game gameNode `json:"game"`
}

type gameNode struct {
	ID         flexString                 `json:"id"`
	Status     flexString                 `json:"status"`
	Scheduled  flexString                 `json:"scheduled"`
	League     lenient[leagueNode]        `json:"league"`
	Venue      lenient[venueNode]         `json:"venue"`
	Weather    lenient[weatherNode]       `json:"weather"`
	Broadcast  lenient[broadcastNode]     `json:"broadcast"`
	Broadcasts lenientList[broadcastNode] `json:"broadcasts"`
	Home       lenient[teamNode]          `json:"home"`
	Away       lenient[teamNode]          `json:"away"`
}

type leagueNode struct {
	Alias flexString `json:"alias"`
	Name  flexString `json:"name"`
}

type venueNode struct {
	Name     flexString `json:"name"`
	Market   flexString `json:"market"`
	City     flexString `json:"city"`
	State    flexString `json:"state"`
	TimeZone flexString `json:"time_zone"`
}

type weatherNode struct {
	Current  lenient[weatherConditions] `json:"current_conditions"`
	Forecast lenient[weatherConditions] `json:"forecast"`
}

type weatherConditions struct {
	Condition flexString        `json:"condition"`
	TempF     flexInt           `json:"temp_f"`
	Humidity  flexInt           `json:"humidity"`
	Wind      lenient[windNode] `json:"wind"`
}

type windNode struct {
	SpeedMPH  flexInt    `json:"speed_mph"`
	Direction flexString `json:"direction"`
}

type broadcastNode struct {
	Network flexString `json:"network"`
}

type teamNode struct {
	ID              flexString               `json:"id"`
	Name            flexString               `json:"name"`
	Market          flexString               `json:"market"`
	Abbr            flexString               `json:"abbr"`
	Win             flexInt                  `json:"win"`
	Loss            flexInt                  `json:"loss"`
	Runs            flexInt                  `json:"runs"`
	ProbablePitcher lenient[pitcherNode]     `json:"probable_pitcher"`
	Scoring         lenientList[scoringNode] `json:"scoring"`
	Statistics      lenient[statisticsNode]  `json:"statistics"`
}

type pitcherNode struct {
	PreferredName flexString `json:"preferred_name"`
	FirstName     flexString `json:"first_name"`
	LastName      flexString `json:"last_name"`
	FullName      flexString `json:"full_name"`
}

type scoringNode struct {
	Number flexInt    `json:"number"`
	Runs   flexInt    `json:"runs"`
	Type   flexString `json:"type"`
}

type statisticsNode struct {
	Hitting  lenient[overallOf[hittingStats]]  `json:"hitting"`
	Pitching lenient[overallOf[pitchingStats]] `json:"pitching"`
	Fielding lenient[overallOf[fieldingStats]] `json:"fielding"`
}

type overallOf[T any] struct {
	Overall lenient[T] `json:"overall"`
}

type hittingStats struct {
	Runs lenient[struct {
		Total flexInt `json:"total"`
	}] `json:"runs"`
	OnBase lenient[struct {
		H  flexInt `json:"h"`
		HR flexInt `json:"hr"`
		TB flexInt `json:"tb"`
		BB flexInt `json:"bb"`
	}] `json:"onbase"`
	Outcome lenient[struct {
		KTotal flexInt `json:"ktotal"`
	}] `json:"outcome"`
	Steal lenient[struct {
		Stolen flexInt `json:"stolen"`
	}] `json:"steal"`
	LOB flexInt `json:"lob"`
}

type pitchingStats struct {
	Outs lenient[struct {
		KTotal flexInt `json:"ktotal"`
	}] `json:"outs"`
}

type fieldingStats struct {
	Errors flexInt `json:"errors"`
}

type playByPlayDocument struct {
	Game *struct {
		Home    lenient[teamNode] `json:"home"`
		Away    lenient[teamNode] `json:"away"`
		Innings []json.RawMessage `json:"innings"`
	} `json:"game"`
}

type inningNode struct {
	Number flexInt           `json:"number"`
	Halfs  []json.RawMessage `json:"halfs"`
}

type halfNode struct {
	Half   flexString             `json:"half"`
	Events elementList[eventNode] `json:"events"`
}

type eventNode struct {
	AtBat lenient[struct {
		Description flexString `json:"description"`
	}] `json:"at_bat"`
}

type scheduleDocument struct {
	Games lenientList[scheduleGameNode] `json:"games"`
}

type scheduleGameNode struct {
	ID        flexString         `json:"id"`
	Status    flexString         `json:"status"`
	Scheduled flexString         `json:"scheduled"`
	Venue     lenient[venueNode] `json:"venue"`
	Home      lenient[teamNode]  `json:"home"`
	Away      lenient[teamNode]  `json:"away"`
}
