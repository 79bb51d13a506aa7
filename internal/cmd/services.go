package main

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizdash/quizdash/internal/auth"
	"github.com/quizdash/quizdash/internal/bus"
	"github.com/quizdash/quizdash/internal/coordinator"
	"github.com/quizdash/quizdash/internal/gateway"
	"github.com/quizdash/quizdash/internal/room"
)

type Services struct {
	Registry    *room.Registry
	Coordinator *coordinator.Coordinator
	Connections *gateway.ConnectionManager
	WSHandler   *gateway.WebSocketHandler

	natsTransport *bus.NATSTransport
	natsConsumer  *gateway.EventConsumer
}

func setupServices(config *Config) (*Services, error) {
	// Wire up the chain: connection manager → transport → coordinator,
	// then hand the coordinator back to the manager for inbound commands.
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	var transport bus.Transport = connections
	var natsTransport *bus.NATSTransport
	var natsConsumer *gateway.EventConsumer

	if config.NATS.Enabled {
		nt, err := bus.NewNATSTransport(config.NATS.URL, connections)
		if err != nil {
			return nil, err
		}
		consumerConfig := gateway.DefaultConsumerConfig()
		consumerConfig.URL = config.NATS.URL
		nc, err := gateway.NewEventConsumer(connections, consumerConfig)
		if err != nil {
			nt.Close()
			return nil, err
		}
		transport = nt
		natsTransport = nt
		natsConsumer = nc
		log.Info().Str("url", config.NATS.URL).Msg("broadcasting through NATS")
	}

	registry := room.NewRegistry()
	verifier := auth.NewVerifier(config.Auth.JWTSecret)
	coord := coordinator.New(registry, transport, verifier, clockwork.NewRealClock())
	connections.SetCommandHandler(coord)

	return &Services{
		Registry:      registry,
		Coordinator:   coord,
		Connections:   connections,
		WSHandler:     gateway.NewWebSocketHandler(connections),
		natsTransport: natsTransport,
		natsConsumer:  natsConsumer,
	}, nil
}

// Start launches the background pieces of the service graph.
func (s *Services) Start(ctx context.Context) error {
	go s.Connections.Start(ctx)
	if s.natsConsumer != nil {
		if err := s.natsConsumer.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears the service graph down in reverse order.
func (s *Services) Stop() {
	s.Coordinator.Close()
	if s.natsConsumer != nil {
		if err := s.natsConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop NATS consumer")
		}
	}
	if s.natsTransport != nil {
		s.natsTransport.Close()
	}
}
