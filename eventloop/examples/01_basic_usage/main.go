// Example: Basic Event Loop Usage
//
// This example demonstrates the fundamental usage of the event loop:
// - Creating a loop
// - Posting callbacks, before and after Start
// - Pumping with ProcessEvents, then Run
//
// Run with: go run ./examples/01_basic_usage/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func main() {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	loop, err := eventloop.New(eventloop.WithLogger(logger), eventloop.WithName("basic"))
	if err != nil {
		panic(err)
	}
	defer loop.Close()

	// Work may be posted before the loop is started, it stays queued
	loop.PostCallback(func() {
		fmt.Println("Callback 1: queued before Start")
	})

	// Pumping a loop that is not started is a recoverable error
	if err := loop.ProcessEvents(); err != nil {
		fmt.Printf("ProcessEvents before Start: %v\n", err)
	}

	// The goroutine that calls Start owns the loop
	loop.Start()
	loop.PostCallback(func() {
		fmt.Println("Callback 2: queued after Start")
	})

	// A single, non-blocking pass
	if err := loop.ProcessEvents(); err != nil {
		panic(err)
	}

	// Other goroutines may post, and stop the loop
	go func() {
		loop.PostCallback(func() {
			fmt.Println("Callback 3: posted from another goroutine")
		})
		time.Sleep(100 * time.Millisecond)
		loop.PostStopEvent()
	}()

	// Run blocks until the loop is stopped
	if err := loop.Run(); err != nil {
		panic(err)
	}
	fmt.Println("Done!")
}
