package payment

import (
	"context"
	"time"
)

// Countdown calls tick with from, from-1, ..., 0, one step per interval.
// It stops without calling tick again once ctx is done or tick fails.
func Countdown(ctx context.Context, from int, interval time.Duration, tick func(remaining int) error) error {
	if from < 0 {
		from = 0
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for remaining := from; ; remaining-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tick(remaining); err != nil {
			return err
		}
		if remaining == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
