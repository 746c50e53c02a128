// Command bgsim drives the backgammon simulation engine: self-play
// batches, the HTTP/WebSocket environment service, and rules
// cross-validation against an external player.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Selfplay SelfplayCmd      `cmd:"" help:"Play a batch of self-play games and report statistics"`
	Play     PlayCmd          `cmd:"" help:"Play a single game and write its MAT transcript"`
	Serve    ServeCmd         `cmd:"" help:"Run the environment service for out-of-process trainers"`
	Validate ValidateCmd      `cmd:"" help:"Cross-check the rules against an external player"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bgsim"),
		kong.Description("Rules-exact backgammon simulation engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// newLogger builds the CLI logger; debug switches on per-request and
// per-batch detail.
func newLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}
