package dashboard

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clockRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

func TestClockRendersImmediately(t *testing.T) {
	var mu sync.Mutex
	var renders []string
	clock := NewClock(func(s string) {
		mu.Lock()
		renders = append(renders, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		clock.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(renders) >= 1
	}, time.Second, time.Millisecond, "first render happens without waiting a tick")

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, renders)
	assert.Regexp(t, clockRe, renders[0])
}

func TestClockNoDisplayIsNoop(t *testing.T) {
	clock := NewClock(nil)

	done := make(chan struct{})
	go func() {
		clock.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clock without display should return immediately")
	}
}

func TestClockFormatsIST(t *testing.T) {
	clock := NewClock(nil)

	// 12:00 UTC is 17:30 IST
	utcNoon := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "17:30:00", clock.Format(utcNoon))
}
