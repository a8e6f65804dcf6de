package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	"github.com/urfave/cli/v2"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a loop on the main goroutine until interrupted, logging a heartbeat",

		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "heartbeat",
				Value: time.Second,
				Usage: "heartbeat timer interval",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "stop after this long, 0 to run until interrupted",
			},
		},

		Action: RunAction,
	}
}

func RunAction(c *cli.Context) error {
	heartbeat := c.Duration("heartbeat")
	if heartbeat <= 0 {
		return cli.Exit("heartbeat must be positive", 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	loop, err := eventloop.New(e.loopOptions("main")...)
	if err != nil {
		return err
	}
	defer loop.Close()

	var beats int
	timer := eventloop.NewTimer(loop)
	timer.Timeout().Connect(func() {
		beats++
		e.logger.Info().
			Int(`beats`, beats).
			Int(`timers`, loop.TimerCount()).
			Log(`heartbeat`)
	})

	go func() {
		<-ctx.Done()
		e.logger.Info().Err(context.Cause(ctx)).Log(`stopping`)
		loop.PostStopEvent()
	}()

	loop.Start()
	timer.Start(heartbeat, true)
	if err := loop.Run(); err != nil {
		return err
	}
	timer.Stop()

	e.logger.Info().Int(`beats`, beats).Log(`stopped`)
	return nil
}
