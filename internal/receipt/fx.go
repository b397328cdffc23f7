package receipt

import "go.uber.org/fx"

var Module = fx.Module("receipt.generator",
	fx.Provide(New),
)
