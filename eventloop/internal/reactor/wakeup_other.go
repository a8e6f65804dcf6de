//go:build !linux

package reactor

func newPlatformWaker() (waker, error) {
	return newChanWaker(), nil
}
