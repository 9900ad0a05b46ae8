package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher mirrors room broadcasts to observers outside the process.
type Publisher interface {
	Publish(room, event string, payload any) error
	Close()
}

type Nop struct{}

func (Nop) Publish(string, string, any) error { return nil }
func (Nop) Close()                            {}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type envelope struct {
	Room  string    `json:"room"`
	Event string    `json:"event"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

type NATS struct {
	nc     conn
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

// Connect dials NATS with reconnect handling and returns a publisher on subjects
// <prefix>.rooms.<CODE>.<event>.
func Connect(url, prefix string, log *zap.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("trivia-rooms"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newNATS(nc, prefix, log), nil
}

func newNATS(nc conn, prefix string, log *zap.Logger) *NATS {
	if prefix == "" {
		prefix = "trivia"
	}
	return &NATS{nc: nc, prefix: prefix, log: log, now: time.Now}
}

func (p *NATS) Subject(room, event string) string {
	return fmt.Sprintf("%s.rooms.%s.%s", p.prefix, strings.ToUpper(room), event)
}

func (p *NATS) Publish(room, event string, payload any) error {
	data, err := json.Marshal(envelope{Room: room, Event: event, At: p.now().UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if err := p.nc.Publish(p.Subject(room, event), data); err != nil {
		return fmt.Errorf("publish %s event: %w", event, err)
	}
	return nil
}

func (p *NATS) Close() {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("NATS drain failed", zap.Error(err))
	}
}
