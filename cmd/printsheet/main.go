package main

import (
	"context"
	"printsheet/cmd/printsheet/commands"
	"printsheet/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext(context.Background()))
}
