//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/Jacobbrewer1/helpdesk/cmd/bot/config"
	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(ctx context.Context, c *config.Config) (*App, func(), error) {
	wire.Build(
		newLoggingConfig,
		logging.CommonLogger,
		mux.NewRouter,
		newSession,
		provideDatabase,
		dataaccess.NewGuildDal,
		dataaccess.NewTicketDal,
		newPlatform,
		ticketing.NewService,
		newNotifier,
		newConfirmations,
		NewApp,
	)
	return new(App), nil, nil
}
