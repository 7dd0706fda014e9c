package services

import (
	"time"

	"github.com/Dosada05/pickup-hoops/models"
)

// Clock задаёт текущее время и часовой пояс, в котором живут расписания игр.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func SystemClock(loc *time.Location) Clock {
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Clock) current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.location())
}

func (c Clock) today() models.Date {
	return models.DateOf(c.current())
}

// Current returns the current time in the clock's location.
func (c Clock) Current() time.Time {
	return c.current()
}
