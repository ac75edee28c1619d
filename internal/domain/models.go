package domain

import "time"

// Player is the client-side projection of one session participant.
// The server owns it; the client only mirrors roster snapshots.
type Player struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Question is an MCQ question exactly as delivered by the server. The
// options ordering is authoritative: the correct index in an answer
// reveal refers to this exact slice, so the client must never reorder it.
type Question struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
	Category    string   `json:"category,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// AuthoredQuestion is a question as produced by the authoring flow,
// before it is persisted to the question store. Unlike Question it
// still carries the correct index, which only exists pre-broadcast.
type AuthoredQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Explanation  string   `json:"explanation"`
	CreatedBy    string   `json:"createdBy,omitempty"`
	CreatedAt    int64    `json:"createdAt,omitempty"`
}

// ShuffleResult is the outcome of permuting a question's options:
// the permuted sequence plus the remapped correct index.
type ShuffleResult struct {
	Options      []string
	CorrectIndex int
}

// SessionStatus mirrors the server's view of a game session.
type SessionStatus string

const (
	StatusWaiting    SessionStatus = "waiting"
	StatusInProgress SessionStatus = "in-progress"
	StatusFinished   SessionStatus = "finished"
)

// PublicGame is one entry of the joinable-games listing.
type PublicGame struct {
	GameID  string        `json:"gameId"`
	Topic   string        `json:"topic"`
	Host    string        `json:"host,omitempty"`
	Players int           `json:"players,omitempty"`
	Status  SessionStatus `json:"status,omitempty"`
}

// PlayerStats is the provider-side accumulated statistics for a user.
type PlayerStats struct {
	GamesPlayed    int `json:"gamesPlayed"`
	GamesWon       int `json:"gamesWon"`
	TotalScore     int `json:"totalScore"`
	CorrectAnswers int `json:"correctAnswers"`
}

// GameSummary is the final record of a finished session, as archived
// locally when a results store is configured.
type GameSummary struct {
	GameID     string    `json:"gameId"`
	Topic      string    `json:"topic,omitempty"`
	Players    []Player  `json:"players"`
	FinishedAt time.Time `json:"finishedAt"`
}
