// Command slotloop exercises the eventloop package: timers, submission
// throughput, and a long running loop owned by the main goroutine.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "slotloop",
		Usage:     "drive an event loop owned by a single goroutine",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "log level: disabled, emerg, alert, crit, err, warning, notice, info, debug, trace",
				EnvVars: []string{"SLOTLOOP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on this address (e.g. :2112), disabled if empty",
				EnvVars: []string{"SLOTLOOP_METRICS_ADDR"},
			},
		},
		Commands: []*cli.Command{
			TimerCommand(),
			StressCommand(),
			RunCommand(),
		},
	}
}
