package chat

import "time"

// idClock hands out timestamp-derived message ids. Ids are unix milliseconds,
// bumped past the previous id when the wall clock has not advanced, so two
// messages never share an id.
type idClock struct {
	now  func() time.Time
	last int64
}

func (c *idClock) next() (int64, time.Time) {
	t := c.now()
	id := t.UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id, t
}
