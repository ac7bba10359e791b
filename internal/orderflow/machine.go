package orderflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a requested stage change skips a
// stage, regresses, or targets a terminal order.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Transition is one recorded stage change, performed by an actor (warehouse,
// stockist or admin staff) at a point in time.
type Transition struct {
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// History is the append-only transition log of a single order. The order's
// current status is always the target of the last entry; entries are never
// rewritten or removed. The zero value is an order in StatusPending with no
// recorded transitions.
type History struct {
	entries []Transition
	now     func() time.Time
}

func NewHistory() *History {
	return &History{now: time.Now}
}

// Current derives the order's status from the log.
func (h *History) Current() Status {
	if len(h.entries) == 0 {
		return StatusPending
	}
	return h.entries[len(h.entries)-1].To
}

// Entries returns a copy of the log, oldest first.
func (h *History) Entries() []Transition {
	out := make([]Transition, len(h.entries))
	copy(out, h.entries)
	return out
}

// Advance moves the order to target. Valid only when target is the immediate
// happy-path successor of the current status, or target is cancelled and the
// order is not terminal. On failure the log, and therefore the status, is
// unchanged.
func (h *History) Advance(target Status, actor string) error {
	current := h.Current()

	if target == StatusCancelled {
		return h.cancel(actor)
	}

	next, ok := current.Successor()
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	h.append(current, target, actor)
	return nil
}

// Cancel aborts a non-terminal order.
func (h *History) Cancel(actor string) error {
	return h.cancel(actor)
}

func (h *History) cancel(actor string) error {
	current := h.Current()
	if current.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, StatusCancelled)
	}
	h.append(current, StatusCancelled, actor)
	return nil
}

func (h *History) append(from, to Status, actor string) {
	clock := h.now
	if clock == nil {
		clock = time.Now
	}
	h.entries = append(h.entries, Transition{From: from, To: to, Actor: actor, At: clock()})
}

// Replay rebuilds a history from a persisted status. Intermediate stages are
// synthesized so that the successor rule holds for later Advance calls.
func Replay(status Status) *History {
	h := NewHistory()
	if status == StatusCancelled {
		_ = h.Cancel("replay")
		return h
	}
	for h.Current() != status {
		next, ok := h.Current().Successor()
		if !ok {
			break
		}
		if err := h.Advance(next, "replay"); err != nil {
			break
		}
	}
	return h
}

// CanAdvance reports whether an order currently in from may move to target,
// without recording anything. Handlers use it to fail fast before calling the
// remote service.
func CanAdvance(from, target Status) bool {
	if target == StatusCancelled {
		return !from.IsTerminal()
	}
	next, ok := from.Successor()
	return ok && next == target
}
