package playbyplay

const (
	HalfTop    = "top"
	HalfBottom = "bottom"
)

// HalfInning lists the plays of one team's turn at bat.
type HalfInning struct {
	TeamName string   `json:"team_name"`
	Inning   int      `json:"inning"`
	Half     string   `json:"half"`
	Plays    []string `json:"plays"`
}
