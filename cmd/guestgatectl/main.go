package main

import (
	"os"

	"github.com/criteo/guestgate/internal/client/commands"
	"github.com/criteo/guestgate/internal/client/exitcode"
)

var version = "1.0.0"

func main() {
	os.Exit(exitcode.Report(os.Stderr, commands.Execute(version)))
}
