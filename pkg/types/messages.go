package types

import "encoding/json"

// Client -> Server event names.
const (
	EvtCreateLobby  = "create-lobby"
	EvtJoinLobby    = "join-lobby"
	EvtSyncLobby    = "sync-lobby"
	EvtToggleReady  = "toggle-ready"
	EvtStartGame    = "start-game"
	EvtPickTopic    = "pick-topic"
	EvtSubmitAnswer = "submit-answer"
	EvtSyncGame     = "sync-game"
)

// Server -> Client event names.
const (
	EvtLobbyUpdate   = "lobby-update"
	EvtGameStarted   = "game-started"
	EvtPhase         = "phase"
	EvtRequestTopics = "requestTopics"
	EvtNewQuestion   = "newQuestion"
	EvtScoreUpdate   = "scoreUpdate"
	EvtRoundOver     = "roundOver"
	EvtGameOver      = "gameOver"
	EvtAck           = "ack"
	EvtError         = "error"
)

// ClientMessage is one inbound frame. Ack is echoed back on the reply when non-zero.
type ClientMessage struct {
	Event string          `json:"event"`
	Ack   int             `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Ack   int    `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type CreateLobbyRequest struct {
	Name string `json:"name"`
}

type JoinLobbyRequest struct {
	LobbyCode string `json:"lobbyCode"`
	Name      string `json:"name"`
}

// LobbyRef is the payload of sync-lobby, toggle-ready, start-game and sync-game.
type LobbyRef struct {
	LobbyCode string `json:"lobbyCode"`
}

type PickTopicRequest struct {
	LobbyCode     string `json:"lobbyCode"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty,omitempty"`
	ForceGenerate bool   `json:"forceGenerate,omitempty"`
	SpeedMs       int    `json:"speedMs,omitempty"`
}

type SubmitAnswerRequest struct {
	LobbyCode   string `json:"lobbyCode"`
	QID         string `json:"qid"`
	ChoiceIndex *int   `json:"choiceIndex"`
}

type Ack struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	LobbyCode string `json:"lobbyCode,omitempty"`
	RoomCode  string `json:"roomCode,omitempty"`
	IsReady   *bool  `json:"isReady,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
