// Example: Blocking Callbacks and Tasks
//
// This example demonstrates synchronizing with the loop goroutine:
// - PostBlockingCallback from a worker goroutine
// - PostTask, with a bounded wait
// - Submission order across callback kinds
//
// Run with: go run ./examples/02_blocking_callbacks/
package main

import (
	"fmt"
	"sync"
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

	// State owned by the loop goroutine, mutated without locks
	var counter int

	var wg sync.WaitGroup
	for worker := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 3 {
				loop.PostCallback(func() { counter++ })
			}
			// returns once every callback this worker posted has run
			loop.PostBlockingCallback(func() {
				fmt.Printf("Worker %d: synchronized, counter=%d\n", worker, counter)
			})
		}()
	}
	wg.Wait()

	task := eventloop.NewTask(func() {
		time.Sleep(50 * time.Millisecond)
		fmt.Printf("Task: final counter=%d\n", counter)
	})
	loop.PostTask(task)
	fmt.Printf("Task wait (10ms): %s\n", task.WaitFor(10*time.Millisecond))
	fmt.Printf("Task wait: %s\n", task.Wait())
	fmt.Printf("Task wait again: %s\n", task.Wait())

	if err := eventloop.RemoveFromGoroutine(loop, g, true); err != nil {
		panic(err)
	}
	fmt.Println("Done!")
}
