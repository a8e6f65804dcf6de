package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	"github.com/urfave/cli/v2"
)

func StressCommand() *cli.Command {
	return &cli.Command{
		Name:    "stress",
		Aliases: []string{"s"},
		Usage:   "post callbacks from many goroutines, reporting throughput",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "producers",
				Aliases: []string{"p"},
				Value:   8,
				Usage:   "number of submitting goroutines",
			},
			&cli.IntFlag{
				Name:    "callbacks",
				Aliases: []string{"c"},
				Value:   100000,
				Usage:   "callbacks posted per producer",
			},
			&cli.BoolFlag{
				Name:  "blocking",
				Usage: "finish each producer with a blocking callback",
			},
		},

		Action: StressAction,
	}
}

func StressAction(c *cli.Context) error {
	producers := c.Int("producers")
	callbacks := c.Int("callbacks")
	blocking := c.Bool("blocking")
	if producers < 1 || callbacks < 1 {
		return cli.Exit("producers and callbacks must be at least 1", 1)
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	loop, err := eventloop.New(e.loopOptions("stress")...)
	if err != nil {
		return err
	}
	defer loop.Close()

	g := eventloop.LaunchInGoroutine(loop)

	// only mutated on the loop goroutine
	var dispatched int
	inc := func() { dispatched++ }

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(producers)
	for range producers {
		go func() {
			defer wg.Done()
			for range callbacks {
				loop.PostCallback(inc)
			}
			if blocking {
				loop.PostBlockingCallback(inc)
			}
		}()
	}
	wg.Wait()

	if err := eventloop.RemoveFromGoroutine(loop, g, true); err != nil {
		return err
	}
	elapsed := time.Since(start)

	_, _ = fmt.Fprintf(c.App.Writer, "dispatched %d callbacks in %v (%.0f/s)\n",
		dispatched, elapsed.Round(time.Millisecond), float64(dispatched)/elapsed.Seconds())
	return nil
}
