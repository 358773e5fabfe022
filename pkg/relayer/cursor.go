package relayer

import "fmt"

// Cursor tracks the highest event index confirmed on the destination chain.
// It lives in memory only: a restarted relayer begins again from index 0.
type Cursor struct {
	lastProcessed uint64
	valid         bool
}

// NewCursorAt returns a cursor whose next index to relay is next.
func NewCursorAt(next uint64) Cursor {
	if next == 0 {
		return Cursor{}
	}
	return Cursor{lastProcessed: next - 1, valid: true}
}

func (c Cursor) LastProcessed() (uint64, bool) {
	return c.lastProcessed, c.valid
}

// Next is the first index not yet confirmed. It equals the number of events
// relayed so far and is directly comparable with the source counter.
func (c Cursor) Next() uint64 {
	if !c.valid {
		return 0
	}
	return c.lastProcessed + 1
}

// Advance records index as confirmed. Indices must be confirmed in order.
func (c *Cursor) Advance(index uint64) error {
	if index != c.Next() {
		return fmt.Errorf("cursor can only advance to index %d, got %d", c.Next(), index)
	}
	c.lastProcessed = index
	c.valid = true
	return nil
}

func (c Cursor) String() string {
	if !c.valid {
		return "empty"
	}
	return fmt.Sprintf("%d", c.lastProcessed)
}
