package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/quizdash/quizdash/internal/bus"
	"github.com/quizdash/quizdash/internal/events"
)

// ConsumerConfig holds configuration for the NATS event consumer.
type ConsumerConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns default NATS consumer configuration.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer subscribes to the coordinator's NATS subjects and fans
// events out to the local WebSocket connections. Only used when the
// deployment routes broadcasts through NATS; the default in-process wiring
// skips it entirely.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	subs              []*nats.Subscription
	config            ConsumerConfig
}

// NewEventConsumer connects to NATS and prepares the consumer.
func NewEventConsumer(cm *ConnectionManager, config ConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.Name("quizdash-gateway"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		config:            config,
	}, nil
}

// Start subscribes to the room and connection subjects.
func (ec *EventConsumer) Start() error {
	roomSub, err := ec.nc.Subscribe(bus.RoomSubjectPrefix+"*", ec.handleRoomMessage)
	if err != nil {
		return fmt.Errorf("subscribe to room subjects: %w", err)
	}
	connSub, err := ec.nc.Subscribe(bus.ConnSubjectPrefix+"*", ec.handleConnMessage)
	if err != nil {
		roomSub.Unsubscribe()
		return fmt.Errorf("subscribe to connection subjects: %w", err)
	}
	ec.subs = []*nats.Subscription{roomSub, connSub}

	log.Info().Msg("gateway event consumer started")
	return nil
}

func (ec *EventConsumer) handleRoomMessage(m *nats.Msg) {
	roomCode := strings.TrimPrefix(m.Subject, bus.RoomSubjectPrefix)
	evt, ok := ec.decode(m.Data)
	if !ok {
		return
	}
	ec.connectionManager.ToRoom(roomCode, evt)
}

func (ec *EventConsumer) handleConnMessage(m *nats.Msg) {
	connID := strings.TrimPrefix(m.Subject, bus.ConnSubjectPrefix)
	evt, ok := ec.decode(m.Data)
	if !ok {
		return
	}
	ec.connectionManager.ToConn(connID, evt)
}

func (ec *EventConsumer) decode(data []byte) (events.Event, bool) {
	var evt events.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Error().Err(err).Msg("failed to decode event from NATS")
		return events.Event{}, false
	}
	return evt, true
}

// Stop unsubscribes and closes the NATS connection.
func (ec *EventConsumer) Stop() error {
	for _, sub := range ec.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe")
		}
	}
	ec.nc.Close()
	return nil
}
