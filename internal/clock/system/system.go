// Package system provides the wall clock used to resolve scrape deadlines.
package system

import "time"

// Clock reads the current time in a fixed location.
type Clock struct {
	loc *time.Location
}

// New creates a Clock in loc. A nil loc means time.Local, so "end of today"
// deadlines follow the host's day boundary.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c Clock) Now() time.Time {
	return time.Now().In(c.loc)
}
