package main

import (
	"stine-client/cmd/stine-cli/commands"
	"stine-client/lib/telemetry"
	"stine-client/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "stine-cli")
	commands.ExecuteContext(ctx)
}
