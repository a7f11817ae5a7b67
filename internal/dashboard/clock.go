package dashboard

import (
	"context"
	"time"
)

const clockLayout = "15:04:05"

// Clock renders the current Indian Standard Time once immediately and
// then every second. With no display attached it does nothing.
type Clock struct {
	loc     *time.Location
	display func(string)
}

func NewClock(display func(string)) *Clock {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return &Clock{loc: loc, display: display}
}

// Run renders until ctx is canceled. It blocks, so callers start it in a
// goroutine.
func (c *Clock) Run(ctx context.Context) {
	if c.display == nil {
		return
	}

	c.render(time.Now())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.render(t)
		}
	}
}

func (c *Clock) render(t time.Time) {
	c.display(t.In(c.loc).Format(clockLayout))
}

// Format returns the IST rendering of t, exposed for the CLI status view.
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(clockLayout)
}
