package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tonynham/collabuu/internal/clock"
	"github.com/tonynham/collabuu/internal/config"
	"github.com/tonynham/collabuu/internal/migration"
	"github.com/tonynham/collabuu/internal/observability"
	"github.com/tonynham/collabuu/internal/server"
	"github.com/tonynham/collabuu/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface plus the campaign, loyalty, visit and redemption
		// domains it mounts.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
