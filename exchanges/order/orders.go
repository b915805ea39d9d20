package order

import (
	"errors"
	"fmt"
)

// Side is the direction of an order, trade or position
type Side string

// Order sides
const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Offset describes whether an order opens or closes exposure
type Offset string

// Order offsets. Both is used on venues that do not distinguish open from
// close.
const (
	Open  Offset = "OPEN"
	Close Offset = "CLOSE"
	Both  Offset = "BOTH"
)

// Status is the order lifecycle state machine:
// SUBMITTING -> NOTTRADED -> PARTTRADED -> {ALLTRADED, CANCELLED, REJECTED}
type Status string

// Order statuses
const (
	Submitting Status = "SUBMITTING"
	NotTraded  Status = "NOTTRADED"
	PartTraded Status = "PARTTRADED"
	AllTraded  Status = "ALLTRADED"
	Cancelled  Status = "CANCELLED"
	Rejected   Status = "REJECTED"
)

var (
	// ErrStatusTransitionInvalid is returned when a status update would move
	// the state machine backwards or mutate a terminal order
	ErrStatusTransitionInvalid = errors.New("invalid order status transition")
	// ErrTradedExceedsVolume is returned when a fill would push traded over
	// the order volume
	ErrTradedExceedsVolume = errors.New("traded amount exceeds order volume")
)

// statusRank orders the state machine; terminal states share the top rank and
// never transition again
var statusRank = map[Status]int{
	Submitting: 0,
	NotTraded:  1,
	PartTraded: 2,
	AllTraded:  3,
	Cancelled:  3,
	Rejected:   3,
}

// IsActive reports whether the status still allows matching or cancellation
func (s Status) IsActive() bool {
	return s == Submitting || s == NotTraded || s == PartTraded
}

// IsTerminal reports whether the status is final
func (s Status) IsTerminal() bool {
	return s == AllTraded || s == Cancelled || s == Rejected
}

// Detail holds the tracked state of one order
type Detail struct {
	Symbol    string
	Exchange  string
	OrderID   string
	Side      Side
	Offset    Offset
	Price     float64
	Volume    float64
	Traded    float64
	Status    Status
	Timestamp int64 // ms
}

// UpdateStatus moves the order along the state machine, rejecting backward
// transitions and any mutation of a terminal order
func (d *Detail) UpdateStatus(s Status) error {
	from, ok := statusRank[d.Status]
	if !ok {
		from = statusRank[Submitting]
	}
	to, ok := statusRank[s]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrStatusTransitionInvalid, s)
	}
	if d.Status.IsTerminal() || to < from {
		return fmt.Errorf("%w: %v -> %v for order %v", ErrStatusTransitionInvalid, d.Status, s, d.OrderID)
	}
	d.Status = s
	return nil
}

// Fill marks the order fully traded at the supplied timestamp. Fills are
// binary, the full volume or nothing.
func (d *Detail) Fill(ts int64) error {
	if err := d.UpdateStatus(AllTraded); err != nil {
		return err
	}
	d.Traded = d.Volume
	d.Timestamp = ts
	return nil
}

// IsActive reports whether the order is still eligible for matching or
// cancellation
func (d *Detail) IsActive() bool {
	return d.Status.IsActive()
}

// Trade is an immutable fill record referencing its originating order
type Trade struct {
	Symbol    string
	Exchange  string
	OrderID   string
	TradeID   string
	Side      Side
	Offset    Offset
	Price     float64
	Volume    float64
	Timestamp int64 // ms
}
