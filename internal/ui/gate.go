package ui

import (
	"context"
	"time"
)

type Action func(ctx context.Context) error

// Gate holds one pending action until confirm, cancel or timeout.
// Expiry is checked lazily by IsOpen, Confirm and Active, there is no timer.
type Gate struct {
	Timeout time.Duration
	clock   func() time.Time

	open    bool
	message string
	action  Action
	created time.Time
}

func NewGate(timeout time.Duration, clock func() time.Time) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{Timeout: timeout, clock: clock}
}

// Open replaces any pending gate.
func (self *Gate) Open(message string, action Action) {
	self.open = true
	self.message = message
	self.action = action
	self.created = self.clock()
}

// IsOpen clears expired gate.
func (self *Gate) IsOpen() bool {
	_, ok := self.Active(self.clock())
	return ok
}

// Confirm clears gate, then runs action exactly once. Expired gate is cleared without running action.
func (self *Gate) Confirm(ctx context.Context) error {
	if !self.IsOpen() {
		return nil
	}
	action := self.action
	self.clear()
	if action == nil {
		return nil
	}
	return action(ctx)
}

func (self *Gate) Cancel() { self.clear() }

// Active reports message of open gate. Expired gate is cleared without running action.
func (self *Gate) Active(now time.Time) (string, bool) {
	if !self.open {
		return "", false
	}
	if self.Timeout > 0 && now.Sub(self.created) > self.Timeout {
		self.clear()
		return "", false
	}
	return self.message, true
}

func (self *Gate) clear() {
	self.open = false
	self.message = ""
	self.action = nil
	self.created = time.Time{}
}
