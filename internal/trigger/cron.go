package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Event is emitted each time the schedule fires.
type Event struct {
	Timestamp time.Time
}

// Cron fires events on a standard five-field cron schedule.
// Ticks are dropped while a previous event is still unconsumed, so runs never overlap.
type Cron struct {
	schedule string
	timezone string
	cron     *cron.Cron
	events   chan Event
	stopOnce sync.Once
}

func NewCron(schedule, timezone string) *Cron {
	return &Cron{
		schedule: schedule,
		timezone: timezone,
	}
}

func (c *Cron) Validate() error {
	if c.schedule == "" {
		return fmt.Errorf("cron schedule is required")
	}
	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}
	if c.timezone != "" {
		if _, err := time.LoadLocation(c.timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return nil
}

// Start begins firing; the channel is closed once ctx is done.
func (c *Cron) Start(ctx context.Context) (<-chan Event, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	location := time.UTC
	if c.timezone != "" {
		tz, err := time.LoadLocation(c.timezone)
		if err != nil {
			return nil, err
		}
		location = tz
	}

	c.events = make(chan Event, 1)
	c.cron = cron.New(cron.WithLocation(location))
	_, err := c.cron.AddFunc(c.schedule, func() {
		select {
		case c.events <- Event{Timestamp: time.Now().UTC()}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return c.events, nil
}

// Stop halts the schedule and closes the event channel. It is safe to call more than once.
func (c *Cron) Stop() error {
	c.stopOnce.Do(func() {
		if c.cron != nil {
			stopCtx := c.cron.Stop()
			<-stopCtx.Done()
		}
		if c.events != nil {
			close(c.events)
		}
	})
	return nil
}
