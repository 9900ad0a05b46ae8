package hub

import (
	"strings"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

type HubMsg interface{ isHubMsg() }

// Reply channels must be buffered.

type CreateLobby struct {
	ConnID string
	Name   string
	Reply  chan<- types.Ack
}

type JoinLobby struct {
	ConnID string
	Code   string
	Name   string
	Reply  chan<- types.Ack
}

type SyncLobby struct {
	ConnID string
	Code   string
}

type ToggleReady struct {
	ConnID string
	Code   string
	Reply  chan<- types.Ack
}

type StartGame struct {
	ConnID string
	Code   string
	Reply  chan<- types.Ack
}

type PickTopic struct {
	ConnID string
	Req    types.PickTopicRequest
	Reply  chan<- types.Ack
}

type SubmitAnswer struct {
	ConnID string
	Req    types.SubmitAnswerRequest
	Reply  chan<- types.Ack
}

type SyncGame struct {
	ConnID string
	Code   string
}

type Disconnect struct {
	ConnID string
}

type GetRoom struct {
	Code  string
	Reply chan *types.RoomSnapshot
}

type ShutdownHub struct{}

type timerFired struct {
	Code  string
	Kind  engine.TimerKind
	Token int
}

type questionsReady struct {
	Code        string
	Epoch       int
	Descriptors []engine.Descriptor
	Err         error
}

type sweep struct{}

func (CreateLobby) isHubMsg()    {}
func (JoinLobby) isHubMsg()      {}
func (SyncLobby) isHubMsg()      {}
func (ToggleReady) isHubMsg()    {}
func (StartGame) isHubMsg()      {}
func (PickTopic) isHubMsg()      {}
func (SubmitAnswer) isHubMsg()   {}
func (SyncGame) isHubMsg()       {}
func (Disconnect) isHubMsg()     {}
func (GetRoom) isHubMsg()        {}
func (ShutdownHub) isHubMsg()    {}
func (timerFired) isHubMsg()     {}
func (questionsReady) isHubMsg() {}
func (sweep) isHubMsg()          {}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
