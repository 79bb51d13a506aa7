package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/quizdash/quizdash/internal/events"
)

// Subjects the NATS transport publishes on. The gateway's event consumer
// subscribes to both wildcards and fans messages out to local sockets.
const (
	RoomSubjectPrefix = "quiz.room."
	ConnSubjectPrefix = "quiz.conn."
)

// RoomSubject returns the subject for a room's broadcast group.
func RoomSubject(roomCode string) string {
	return RoomSubjectPrefix + roomCode
}

// ConnSubject returns the subject for a single connection.
func ConnSubject(connID string) string {
	return ConnSubjectPrefix + connID
}

// NATSTransport publishes outbound events over NATS core pub/sub while
// delegating group membership to the process-local transport that owns the
// sockets. It exists so a deployment can put NATS between the coordinator and
// the gateway without the coordinator noticing.
type NATSTransport struct {
	nc    *nats.Conn
	local Transport
}

// NewNATSTransport connects to the NATS server at url.
func NewNATSTransport(url string, local Transport) (*NATSTransport, error) {
	nc, err := nats.Connect(url, nats.Name("quizdash-coordinator"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info().Str("url", url).Msg("connected to NATS")
	return &NATSTransport{nc: nc, local: local}, nil
}

func (t *NATSTransport) Join(roomCode, connID string) {
	t.local.Join(roomCode, connID)
}

func (t *NATSTransport) Leave(roomCode, connID string) {
	t.local.Leave(roomCode, connID)
}

func (t *NATSTransport) ToRoom(roomCode string, evt events.Event) {
	t.publish(RoomSubject(roomCode), evt)
}

func (t *NATSTransport) ToConn(connID string, evt events.Event) {
	t.publish(ConnSubject(connID), evt)
}

func (t *NATSTransport) publish(subject string, evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to marshal event")
		return
	}
	if err := t.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// Close drains the connection.
func (t *NATSTransport) Close() {
	if err := t.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
