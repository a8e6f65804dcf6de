// Example: Shutdown Handling
//
// This example demonstrates stopping a loop:
// - Draining queued work with a posted stop
// - Stopping immediately, retaining queued work
// - Restarting a stopped loop, on another goroutine
// - Closing, after which submissions are dropped
//
// Run with: go run ./examples/04_shutdown/
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

	fmt.Println("\n=== Draining Shutdown ===")
	g := eventloop.LaunchInGoroutine(loop)
	for i := range 3 {
		loop.PostCallback(func() { fmt.Printf("Task %d: ran before the stop\n", i) })
	}
	if err := eventloop.RemoveFromGoroutine(loop, g, true); err != nil {
		panic(err)
	}

	fmt.Println("\n=== Immediate Shutdown ===")
	g = eventloop.LaunchInGoroutine(loop)
	loop.PostCallback(func() {
		time.Sleep(50 * time.Millisecond)
		fmt.Println("Slow task: the stop waits for it to return")
	})
	time.Sleep(10 * time.Millisecond)
	loop.PostCallback(func() { fmt.Println("Retained task: ran after restart") })
	if err := eventloop.RemoveFromGoroutine(loop, g, false); err != nil {
		panic(err)
	}

	fmt.Println("\n=== Restart ===")
	g = eventloop.LaunchInGoroutine(loop)
	if err := eventloop.RemoveFromGoroutine(loop, g, true); err != nil {
		panic(err)
	}

	fmt.Println("\n=== Close ===")
	if err := loop.Close(); err != nil {
		panic(err)
	}
	loop.PostCallback(func() { fmt.Println("never runs") })
	fmt.Printf("state after close: %s\n", loop.LoopState())
	fmt.Println("Done!")
}
