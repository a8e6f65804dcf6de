// Package examples contains runnable example programs demonstrating
// the eventloop package functionality.
//
// # Examples
//
// The examples directory contains the following subdirectories:
//
//   - 01_basic_usage: Start, pump, and stop a loop on the main goroutine
//   - 02_blocking_callbacks: Blocking callbacks and tasks from other goroutines
//   - 03_timers: Single shot, repeating, and replaced timers
//   - 04_shutdown: Stopping a launched loop, with and without draining
//
// # Running Examples
//
// Each example can be run from the eventloop directory:
//
//	cd eventloop
//	go run ./examples/01_basic_usage/
//	go run ./examples/02_blocking_callbacks/
//	go run ./examples/03_timers/
//	go run ./examples/04_shutdown/
package examples
