package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/internal/hub"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 25 * time.Second
	// pick-topic acks wait for question generation
	ackTimeout = 90 * time.Second
)

var (
	errBadJSON      = errors.New("bad json")
	errUnknownEvent = errors.New("unknown event")
)

type Options struct {
	// OriginPatterns are passed to websocket.Accept. Empty means same-origin only.
	OriginPatterns []string
}

func Handler(h *hub.Hub, m *Manager, log *zap.Logger, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Info("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := newClient(uuid.NewString())
		m.register(c)
		clog := log.With(zap.String("conn", c.id))
		clog.Debug("client connected", zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		defer func() {
			m.unregister(c.id)
			select {
			case h.Inbox() <- hub.Disconnect{ConnID: c.id}:
			case <-h.Done():
			}
			clog.Debug("client disconnected")
		}()

		go writePump(ctx, cancel, conn, c, clog)

		s := &session{hub: h, mgr: m, connID: c.id, log: clog}
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if ctx.Err() == nil {
						clog.Debug("read failed", zap.Error(err))
					}
				}
				return
			}
			s.handle(ctx, data)
		}
	}
}

func writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client, log *zap.Logger) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				// closed by the manager: slow client or unregister
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, frame)
			wcancel()
			if err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				log.Debug("ping failed", zap.Error(err))
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// session decodes one connection's frames into hub messages.
type session struct {
	hub    *hub.Hub
	mgr    *Manager
	connID string
	log    *zap.Logger
}

func (s *session) handle(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("frame handler panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		s.fail(errBadJSON)
		return
	}
	d, err := s.decode(cm)
	if err != nil {
		s.log.Debug("rejected frame", zap.String("event", cm.Event), zap.Error(err))
		if acked(cm.Event) {
			s.mgr.sendMessage(s.connID, types.ServerMessage{Event: types.EvtAck, Ack: cm.Ack, Data: types.Ack{Error: err.Error()}})
			return
		}
		s.fail(err)
		return
	}
	if !s.post(ctx, d.msg) {
		return
	}
	if d.reply != nil {
		go s.awaitAck(ctx, cm.Ack, d.reply)
	}
}

type decoded struct {
	msg   hub.HubMsg
	reply <-chan types.Ack
}

func (s *session) decode(cm types.ClientMessage) (decoded, error) {
	reply := make(chan types.Ack, 1)
	switch cm.Event {
	case types.EvtCreateLobby:
		var req types.CreateLobbyRequest
		if err := unmarshal(cm.Data, &req); err != nil {
			return decoded{}, err
		}
		return decoded{hub.CreateLobby{ConnID: s.connID, Name: req.Name, Reply: reply}, reply}, nil

	case types.EvtJoinLobby:
		var req types.JoinLobbyRequest
		if err := unmarshal(cm.Data, &req); err != nil {
			return decoded{}, err
		}
		return decoded{hub.JoinLobby{ConnID: s.connID, Code: req.LobbyCode, Name: req.Name, Reply: reply}, reply}, nil

	case types.EvtSyncLobby, types.EvtToggleReady, types.EvtStartGame, types.EvtSyncGame:
		var ref types.LobbyRef
		if err := unmarshal(cm.Data, &ref); err != nil {
			return decoded{}, err
		}
		switch cm.Event {
		case types.EvtSyncLobby:
			return decoded{msg: hub.SyncLobby{ConnID: s.connID, Code: ref.LobbyCode}}, nil
		case types.EvtSyncGame:
			return decoded{msg: hub.SyncGame{ConnID: s.connID, Code: ref.LobbyCode}}, nil
		case types.EvtToggleReady:
			return decoded{hub.ToggleReady{ConnID: s.connID, Code: ref.LobbyCode, Reply: reply}, reply}, nil
		default:
			return decoded{hub.StartGame{ConnID: s.connID, Code: ref.LobbyCode, Reply: reply}, reply}, nil
		}

	case types.EvtPickTopic:
		var req types.PickTopicRequest
		if err := unmarshal(cm.Data, &req); err != nil {
			return decoded{}, err
		}
		return decoded{hub.PickTopic{ConnID: s.connID, Req: req, Reply: reply}, reply}, nil

	case types.EvtSubmitAnswer:
		var req types.SubmitAnswerRequest
		if err := unmarshal(cm.Data, &req); err != nil {
			return decoded{}, err
		}
		return decoded{hub.SubmitAnswer{ConnID: s.connID, Req: req, Reply: reply}, reply}, nil
	}
	return decoded{}, fmt.Errorf("%w: %q", errUnknownEvent, cm.Event)
}

// acked reports whether the event is answered with an ack frame.
func acked(event string) bool {
	switch event {
	case types.EvtCreateLobby, types.EvtJoinLobby, types.EvtToggleReady,
		types.EvtStartGame, types.EvtPickTopic, types.EvtSubmitAnswer:
		return true
	}
	return false
}

func unmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errBadJSON
	}
	return nil
}

func (s *session) post(ctx context.Context, m hub.HubMsg) bool {
	select {
	case s.hub.Inbox() <- m:
		return true
	case <-ctx.Done():
		return false
	case <-s.hub.Done():
		return false
	}
}

func (s *session) awaitAck(ctx context.Context, id int, reply <-chan types.Ack) {
	timer := time.NewTimer(ackTimeout)
	defer timer.Stop()
	select {
	case ack := <-reply:
		s.mgr.sendMessage(s.connID, types.ServerMessage{Event: types.EvtAck, Ack: id, Data: ack})
	case <-timer.C:
		s.log.Warn("ack timed out", zap.Int("ack", id))
	case <-ctx.Done():
	}
}

func (s *session) fail(err error) {
	s.mgr.Send(s.connID, types.EvtError, types.ErrorPayload{Error: err.Error()})
}
