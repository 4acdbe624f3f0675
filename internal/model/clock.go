package model

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeControl is the time each side starts with.
const DefaultTimeControl = 10 * time.Minute

// Clock tracks thinking time for one side. It only informs the display; running out does not
// end the game.
type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
}

func NewClock(initialTime time.Duration) *Clock {
	return &Clock{
		timeLeft:  initialTime,
		isRunning: false,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = time.Now()
		c.isRunning = true
		log.Debug().Dur("timeLeft", c.timeLeft).Msg("clock started")
	}
}

// Stop halts the clock and returns how long it ran since the last Start.
func (c *Clock) Stop() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		return 0
	}
	spent := time.Since(c.lastStarted)
	c.timeLeft -= spent
	c.isRunning = false
	log.Debug().Dur("spent", spent).Dur("timeLeft", c.timeLeft).Msg("clock stopped")
	return spent
}

// Credit gives back time, used when a move is taken back.
func (c *Clock) Credit(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeLeft += d
}

func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return c.timeLeft - time.Since(c.lastStarted)
	}
	return c.timeLeft
}

// tenths converts a duration to the tenths-of-a-second unit clients display.
func tenths(d time.Duration) int {
	return int(d.Milliseconds() / 100)
}
