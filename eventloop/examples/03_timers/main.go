// Example: Timer Patterns
//
// This example demonstrates timers bound to a loop:
// - Single shot timers
// - Repeating timers, stopped from their own observer
// - Restarting a timer, which replaces its schedule (debouncing)
//
// Run with: go run ./examples/03_timers/
package main

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
)

func main() {
	loop, err := eventloop.New()
	if err != nil {
		panic(err)
	}
	defer loop.Close()

	g := eventloop.LaunchInGoroutine(loop)
	start := time.Now()
	elapsed := func() time.Duration { return time.Since(start).Round(10 * time.Millisecond) }

	// Single shot
	once := eventloop.NewTimer(loop)
	once.Timeout().Connect(func() {
		fmt.Printf("[%v] single shot fired\n", elapsed())
	})
	once.Start(100*time.Millisecond, false)

	// Repeating, stopped after 5 ticks
	ticks := 0
	ticker := eventloop.NewTimer(loop)
	ticker.Timeout().Connect(func() {
		ticks++
		fmt.Printf("[%v] tick %d\n", elapsed(), ticks)
		if ticks == 5 {
			ticker.Stop()
		}
	})
	ticker.Start(50*time.Millisecond, true)

	// Debounce: only the last restart fires
	debounce := eventloop.NewTimer(loop)
	debounce.Timeout().Connect(func() {
		fmt.Printf("[%v] debounced, after the last input\n", elapsed())
	})
	for range 5 {
		debounce.Start(150*time.Millisecond, false)
		time.Sleep(30 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	fmt.Printf("active: once=%v ticker=%v debounce=%v\n", once.Active(), ticker.Active(), debounce.Active())

	if err := eventloop.RemoveFromGoroutine(loop, g, false); err != nil {
		panic(err)
	}
	fmt.Println("Done!")
}
