package main

import (
	"context"

	"github.com/angelmondragon/tandemflight-backend/pkg/bootstrap"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/registry"
)

func main() {
	proc := bootstrap.Start("outbox-publisher")
	ctx := context.Background()

	dbClient := proc.DB(ctx)
	pubsubClient := proc.PubSub(ctx)

	eventRegistry, err := registry.NewEventRegistry(proc.Config.PubSub)
	proc.Must("event registry", err)

	service, err := NewService(ServiceParams{
		Config:        proc.Config,
		Logger:        proc.Logger,
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
	})
	proc.Must("outbox publisher", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	proc.Logger.Info(runCtx, "starting outbox publisher")
	proc.Wait(runCtx, service.Run(runCtx))
}
