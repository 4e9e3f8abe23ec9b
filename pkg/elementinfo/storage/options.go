package storage

import "time"

// Option configures an element store.
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock sets the clock used to stamp LastUpdate.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
