//go:build windows

package resize

import "time"

// newNotifier has no SIGWINCH equivalent on Windows, so ResizeLoop falls
// back to a 250ms poll. The unix build has no poll; it relies on SIGWINCH
// alone.
func newNotifier() (<-chan struct{}, func()) {
	ticker := time.NewTicker(250 * time.Millisecond)
	out := make(chan struct{})
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				select {
				case out <- struct{}{}:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()
	return out, func() {
		ticker.Stop()
		close(done)
	}
}
