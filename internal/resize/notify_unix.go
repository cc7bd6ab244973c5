//go:build !windows

package resize

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// newNotifier watches SIGWINCH, the terminal resize signal. A buffered
// channel of size 1 coalesces bursts of signals into a single pending
// sample.
func newNotifier() (<-chan struct{}, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGWINCH)

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				select {
				case out <- struct{}{}:
				default:
				}
			case <-done:
				return
			}
		}
	}()

	return out, func() {
		signal.Stop(sigCh)
		close(done)
	}
}
