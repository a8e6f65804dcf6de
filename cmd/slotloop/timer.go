package main

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	"github.com/urfave/cli/v2"
)

func TimerCommand() *cli.Command {
	return &cli.Command{
		Name:    "timer",
		Aliases: []string{"t"},
		Usage:   "run a timer on the main goroutine, printing each timeout",

		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   100 * time.Millisecond,
				Usage:   "timer interval",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   5,
				Usage:   "number of timeouts to wait for (repeating timers only)",
			},
			&cli.BoolFlag{
				Name:  "single-shot",
				Usage: "fire once, instead of repeating",
			},
		},

		Action: TimerAction,
	}
}

func TimerAction(c *cli.Context) error {
	interval := c.Duration("interval")
	count := c.Int("count")
	singleShot := c.Bool("single-shot")
	if interval <= 0 {
		return cli.Exit("interval must be positive", 1)
	}
	if singleShot {
		count = 1
	} else if count < 1 {
		return cli.Exit("count must be at least 1", 1)
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	loop, err := eventloop.New(e.loopOptions("timer")...)
	if err != nil {
		return err
	}
	defer loop.Close()

	start := time.Now()
	fired := 0
	timer := eventloop.NewTimer(loop)
	timer.Timeout().Connect(func() {
		fired++
		_, _ = fmt.Fprintf(c.App.Writer, "timeout %d after %v\n", fired, time.Since(start).Round(time.Millisecond))
		if fired >= count {
			timer.Stop()
			loop.Stop()
		}
	})

	loop.Start()
	timer.Start(interval, !singleShot)
	if err := loop.Run(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.App.Writer, "fired %d times, active=%v\n", fired, timer.Active())
	return nil
}
