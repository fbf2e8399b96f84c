// Package spinning shows a spinning symbol while the engine is thinking, and handles interruptions
// (Ctrl+C) so long training runs can be stopped gracefully.
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

// Spinning displays a spinning symbol until Done is called.
type Spinning struct {
	wg     sync.WaitGroup
	cancel func()
}

var (
	ThemeAscii = []rune(`|/-\`)
	ThemeMoon  = []rune("\U0001F311\U0001F312\U0001F313\U0001F314\U0001F315\U0001F316\U0001F317\U0001F318")

	// Theme defaults to ThemeMoon, but it can be set to anything else.
	Theme = ThemeMoon

	// Interval between updates of the spinning symbol.
	Interval = 250 * time.Millisecond
)

// SafeInterrupt captures SIGINT (Ctrl+C) and SIGTERM and calls onInterrupt, typically a
// context's cancel function. If the program hasn't exited after gracePeriod, it resets the terminal
// and exits.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("Interrupted (signal %q), shutting down in at most %s", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("Grace period of %s expired, exiting.", gracePeriod)
	}()
}

// Reset terminal: make cursor visible, restore default terminal colors.
func Reset() {
	fmt.Print("\033[?25h\033[39;49;0m\n")
}

// New starts a spinning display on w, in a separate goroutine.
// It stops when ctx is done or Spinning.Done is called.
func New(ctx context.Context, w io.Writer) *Spinning {
	s := &Spinning{}
	ctx, s.cancel = context.WithCancel(ctx)
	theme := Theme
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()
		// Hide the cursor while spinning.
		_, _ = fmt.Fprint(w, "\033[?25l")
		defer func() { _, _ = fmt.Fprint(w, "\033[?25h") }()

		_, _ = fmt.Fprint(w, "  ")
		for idx := 0; ; idx = (idx + 1) % len(theme) {
			_, _ = fmt.Fprintf(w, "\b\b%c", theme[idx])
			select {
			case <-ctx.Done():
				_, _ = fmt.Fprint(w, "\b\b  \b\b")
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

// Done stops the spinning display and waits for it to clear.
func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}
