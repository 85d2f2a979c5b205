package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cfoust/broadside/pkg/config"
	"github.com/cfoust/broadside/pkg/version"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

var CLI struct {
	Version kong.VersionFlag `help:"Print version information and exit." short:"v"`
	Debug   bool             `help:"Whether to enable debug logging."`

	Serve struct {
		Configs []string `arg:"" optional:"" name:"configs" help:"Configuration files for the server." type:"existingfile"`
	} `cmd:"" help:"Start the broadside server."`

	Config struct {
	} `cmd:"" help:"Write broadside's default configuration to standard output."`

	Ratings struct {
		Configs []string `arg:"" optional:"" name:"configs" help:"Configuration files naming the ratings store." type:"existingfile"`
		Limit   int      `help:"How many ratings to show." default:"10" short:"n"`
	} `cmd:"" help:"Print the best participants in the ratings store."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func setupLogging() {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        colorable.NewColorableStdout(),
			TimeFormat: time.RFC3339,
		}
		log.Logger = log.Output(consoleWriter)
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	setupLogging()

	// The arena holds its lock for an entire match, which can easily
	// outlast the default deadlock timeout.
	deadlock.Opts.DeadlockTimeout = 0

	if len(os.Args) == 1 {
		err := serveCommand([]string{})
		if err != nil {
			writeError(err)
		}
		return
	}

	ctx := kong.Parse(&CLI,
		kong.Name("broadside"),
		kong.Description("a three-way battleship server"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf(
				"broadside %s (commit %s, built %s)",
				version.Version,
				version.GitCommit,
				version.BuildTime,
			),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	switch ctx.Command() {
	case "serve":
		fallthrough
	case "serve <configs>":
		err := serveCommand(CLI.Serve.Configs)
		if err != nil {
			writeError(err)
		}
	case "config":
		os.Stdout.Write(config.DEFAULT)
	case "ratings":
		fallthrough
	case "ratings <configs>":
		err := ratingsCommand(CLI.Ratings.Configs, CLI.Ratings.Limit)
		if err != nil {
			writeError(err)
		}
	}
}
