package main

import (
	"context"

	"regassist-backend/cmd/regassist-cli/commands"
	"regassist-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(context.Background(), "regassist-cli")
	defer telemetry.Shutdown(context.Background())

	commands.ExecuteContext(context.Background())
}
