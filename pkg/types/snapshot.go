package types

import "time"

// PlayerView is one row of a lobby-update.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	IsHost    bool   `json:"isHost"`
	IsReady   bool   `json:"isReady"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// RoomSnapshot is the debug view of a room and its game, if any.
type RoomSnapshot struct {
	Code         string       `json:"code"`
	State        string       `json:"state"`
	Players      []PlayerView `json:"players"`
	Phase        string       `json:"phase,omitempty"`
	PickerID     string       `json:"pickerId,omitempty"`
	Round        int          `json:"round,omitempty"`
	Turn         int          `json:"turn,omitempty"`
	Visited      []string     `json:"visited,omitempty"`
	PendingTimer string       `json:"pendingTimer,omitempty"`
}

type GameStarted struct {
	RoomCode string `json:"roomCode"`
}

type PhaseUpdate struct {
	RoomCode string `json:"roomCode"`
	Phase    string `json:"phase"`
	PickerID string `json:"pickerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RequestTopics struct {
	RoomCode string   `json:"roomCode"`
	PickerID string   `json:"pickerId"`
	Topics   []string `json:"topics"`
}

// QuestionView never carries the correct index.
type QuestionView struct {
	QID       string    `json:"qid"`
	Text      string    `json:"text"`
	Choices   []string  `json:"choices"`
	ExpiresAt time.Time `json:"expiresAt"`
	Round     int       `json:"round"`
	Turn      int       `json:"turn"`
}

type NewQuestion struct {
	RoomCode string       `json:"roomCode"`
	Question QuestionView `json:"question"`
}

type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type ScoreUpdate struct {
	RoomCode     string             `json:"roomCode"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	CorrectIndex int                `json:"correctIndex"`
	QID          string             `json:"qid"`
}

type RoundOver struct {
	RoomCode     string             `json:"roomCode"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	NextPickerID string             `json:"nextPickerId"`
}

type GameOver struct {
	RoomCode string             `json:"roomCode"`
	Final    []LeaderboardEntry `json:"final"`
}
