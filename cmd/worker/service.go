package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

var _ consumer = (*notifications.Consumer)(nil)

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   pinger
	Redis                pinger
	PubSub               pinger
	NotificationConsumer consumer
}

type dependency struct {
	name string
	p    pinger
}

// Service renders and records booking notifications pulled from Pub/Sub.
type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	deps     []dependency
	consumer consumer
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.NotificationConsumer == nil:
		return nil, errors.New("notification consumer is required")
	}

	deps := []dependency{
		{name: "database", p: params.DB},
		{name: "redis", p: params.Redis},
		{name: "pubsub", p: params.PubSub},
	}
	for _, d := range deps {
		if d.p == nil {
			return nil, fmt.Errorf("%s client is required", d.name)
		}
	}

	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		deps:     deps,
		consumer: params.NotificationConsumer,
	}, nil
}

func (s *Service) checkDependencies(ctx context.Context) error {
	for _, d := range s.deps {
		if err := d.p.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", d.name), "dependency unavailable", err)
			return fmt.Errorf("%s ping failed: %w", d.name, err)
		}
	}
	s.logg.Info(ctx, "worker dependencies ready")
	return nil
}

// Run blocks until ctx is canceled or the consumer returns.
func (s *Service) Run(ctx context.Context) error {
	if err := s.checkDependencies(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.consumer.Run(ctx) }()

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker stopping")
		return ctx.Err()
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "notification consumer exited", err)
		}
		return err
	}
}
