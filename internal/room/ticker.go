package room

import "time"

// scheduler is the room's tick source with an explicit cancellation handle.
// While stopped its channel is nil, which blocks forever in the actor's
// select — a dormant room parks on its inbox until a join restarts the loop.
type scheduler struct {
	interval time.Duration
	ticker   *time.Ticker
}

func newScheduler(interval time.Duration) *scheduler {
	return &scheduler{interval: interval}
}

func (s *scheduler) Start() {
	if s.ticker == nil {
		s.ticker = time.NewTicker(s.interval)
	}
}

func (s *scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *scheduler) Running() bool { return s.ticker != nil }

func (s *scheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}
