package postsetup

import "time"

// Session holds one moderator's in-progress post creation.
type Session struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	SelectedGameID string    `json:"selected_game_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Post struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}
