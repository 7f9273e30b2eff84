package brief

import (
	"errors"
	"time"
)

// ErrLocked is returned when something other than an explicit relock tries
// to change a locked constraint.
var ErrLocked = errors.New("constraint is locked")

// Revision is one superseded value, kept for audit. Values are stored
// rendered so history survives schema changes to the typed value.
type Revision struct {
	Value  string    `json:"value"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
}

// Constraint is one slot's value plus its metadata. Once LockedAt is set the
// value is immutable until an explicit unlock-and-relock transition, which
// records a history entry.
type Constraint[T any] struct {
	Value      T          `json:"value"`
	Kind       Kind       `json:"kind"`
	Confidence int        `json:"confidence"`
	Source     Source     `json:"source"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
	History    []Revision `json:"history,omitempty"`
	Filled     bool       `json:"filled"`
}

// Ready reports filled-and-locked, the only state planning reads from.
func (c *Constraint[T]) Ready() bool {
	return c.Filled && c.LockedAt != nil
}

func (c *Constraint[T]) Locked() bool {
	return c.LockedAt != nil
}

// set fills or revises an unconfirmed value. A locked constraint rejects it.
// oldRendered is the superseded value, recorded when one existed.
func (c *Constraint[T]) set(v T, oldRendered string, confidence int, src Source, kind Kind, now time.Time, reason string) error {
	if c.LockedAt != nil {
		return ErrLocked
	}
	if c.Filled {
		c.History = append(c.History, Revision{Value: oldRendered, At: now, Reason: reason})
	}
	c.Value = v
	c.Confidence = confidence
	c.Source = src
	c.Kind = kind
	c.Filled = true
	return nil
}

func (c *Constraint[T]) lock(now time.Time) {
	t := now
	c.LockedAt = &t
}

// relock replaces a locked value after fresh confirmation, recording the old
// value in history.
func (c *Constraint[T]) relock(v T, oldRendered string, confidence int, src Source, now time.Time, reason string) {
	c.History = append(c.History, Revision{Value: oldRendered, At: now, Reason: reason})
	c.Value = v
	c.Confidence = confidence
	c.Source = src
	t := now
	c.LockedAt = &t
	c.Filled = true
}

// clear empties an unconfirmed slot (user denied), keeping a history entry.
func (c *Constraint[T]) clear(oldRendered string, now time.Time, reason string) {
	var zero T
	c.History = append(c.History, Revision{Value: oldRendered, At: now, Reason: reason})
	c.Value = zero
	c.Filled = false
	c.LockedAt = nil
	c.Confidence = 0
	c.Source = ""
}
