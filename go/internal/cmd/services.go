package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/wheelround/go/internal/auth"
	"github.com/mcdev12/wheelround/go/internal/config"
	"github.com/mcdev12/wheelround/go/internal/round/gateway"
	"github.com/mcdev12/wheelround/go/internal/round/mirror"
	"github.com/mcdev12/wheelround/go/internal/round/orchestrator"
	"github.com/mcdev12/wheelround/go/internal/round/outcome"
	"github.com/mcdev12/wheelround/go/internal/round/period"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Controller  *orchestrator.Controller
	Connections *gateway.ConnectionManager
	Mirror      *mirror.Worker
	Auth        *auth.Handler
	State       *gateway.StateHandler
	WebSocket   *gateway.WebSocketHandler
	Rounds      RoundStore

	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg config.Config, stores *Stores) (*Services, error) {
	// Wire up dependency injection chain
	// Calculator → Controller → Dispatcher → Handlers
	svc := &Services{Rounds: stores.Rounds}

	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	calc, err := period.NewCalculator(window, cfg.RoundDuration())
	if err != nil {
		return nil, err
	}

	// Observers
	svc.Connections = gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	sinks := gateway.Fanout{svc.Connections}

	// Event mirror
	if cfg.NATS.Enabled {
		jsCfg := mirror.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.StreamName
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		publisher, err := mirror.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up event mirror: %w", err)
		}
		svc.closers = append(svc.closers, func() { publisher.Close() })
		svc.Mirror = mirror.NewWorker(publisher, mirror.DefaultConfig())
		sinks = append(sinks, svc.Mirror)
	}

	// Round lifecycle
	svc.Controller = orchestrator.NewController(
		calc,
		outcome.NewRandomGenerator(),
		stores.Rounds,
		sinks,
		orchestrator.Config{
			TickInterval:   cfg.Game.TickInterval,
			PersistTimeout: cfg.Game.PersistTimeout,
		},
	)

	dispatcher := gateway.NewDispatcher(svc.Controller, svc.Connections, cfg.Game.PersistTimeout)
	svc.Connections.SetHandler(dispatcher)

	// Operators
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(secret, cfg.Auth.TokenTTL, nil)
	if err != nil {
		return nil, err
	}
	authApp := auth.NewApp(stores.Users, tokens)

	svc.Auth = auth.NewHandler(authApp)
	svc.State = gateway.NewStateHandler(svc.Controller, stores.Rounds)
	svc.WebSocket = gateway.NewWebSocketHandler(svc.Connections, dispatcher, authApp, cfg.Auth.RequireSocketToken)

	return svc, nil
}
