package usecase

import (
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
)

// NormalizePlayByPlay flattens innings -> halfs -> events into half-inning
// groups in source order. Innings numbered 0 or less are lineup placeholders
// and are skipped, as is any inning or half that fails to decode.
func NormalizePlayByPlay(raw []byte) ([]playbyplay.HalfInning, error) {
	var doc playByPlayDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPlayByPlay, err)
	}
	if doc.Game == nil {
		return nil, ErrNoPlayByPlay
	}

	home := mapTeam(doc.Game.Home.V).DisplayName()
	away := mapTeam(doc.Game.Away.V).DisplayName()

	out := make([]playbyplay.HalfInning, 0, len(doc.Game.Innings)*2)
	for _, rawInning := range doc.Game.Innings {
		var inning inningNode
		if err := sonic.Unmarshal(rawInning, &inning); err != nil {
			continue
		}
		number := int(inning.Number)
		if number <= 0 {
			continue
		}

		for _, rawHalf := range inning.Halfs {
			var half halfNode
			if err := sonic.Unmarshal(rawHalf, &half); err != nil {
				continue
			}
			group := playbyplay.HalfInning{Inning: number}
			switch strings.ToUpper(half.Half.String()) {
			case "T":
				group.Half, group.TeamName = playbyplay.HalfTop, away
			case "B":
				group.Half, group.TeamName = playbyplay.HalfBottom, home
			default:
				continue
			}

			group.Plays = make([]string, 0, len(half.Events))
			for _, ev := range half.Events {
				if desc := ev.AtBat.V.Description.String(); desc != "" {
					group.Plays = append(group.Plays, desc)
				}
			}
			out = append(out, group)
		}
	}

	return out, nil
}
