package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/analytics"
	"github.com/smallbiznis/shoecare/internal/audit"
	"github.com/smallbiznis/shoecare/internal/authorization"
	"github.com/smallbiznis/shoecare/internal/catalog"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/config"
	"github.com/smallbiznis/shoecare/internal/customer"
	"github.com/smallbiznis/shoecare/internal/expense"
	"github.com/smallbiznis/shoecare/internal/migration"
	"github.com/smallbiznis/shoecare/internal/notification"
	"github.com/smallbiznis/shoecare/internal/observability"
	"github.com/smallbiznis/shoecare/internal/order"
	"github.com/smallbiznis/shoecare/internal/photo"
	"github.com/smallbiznis/shoecare/internal/ratelimit"
	"github.com/smallbiznis/shoecare/internal/receipt"
	"github.com/smallbiznis/shoecare/internal/server"
	"github.com/smallbiznis/shoecare/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		audit.Module,
		authorization.Module,
		customer.Module,
		catalog.Module,
		photo.Module,
		notification.Module,
		order.Module,
		expense.Module,
		analytics.Module,
		receipt.Module,
		ratelimit.Module,

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
