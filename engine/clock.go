package engine

import (
	"fmt"
	"math"
)

// Calendar constants. Every month has 28 days.
const (
	MonthsPerYear    = 12
	DaysPerMonth     = 28
	DaysPerYear      = DaysPerMonth * MonthsPerYear
	HoursPerDay      = 24
	MinutesPerHour   = 60
	SecondsPerMinute = 60

	secondsPerDay = HoursPerDay * MinutesPerHour * SecondsPerMinute
)

// Daylight hours, inclusive start and exclusive end.
const (
	dawnHour = 6
	duskHour = 18
)

// Clock maps simulation seconds onto a calendar starting at 0001/01/01.
type Clock struct {
	dayLength float64 // simulation seconds per calendar day
	days      float64 // calendar days since epoch
}

// NewClock creates a clock where one calendar day lasts dayLength
// simulation seconds, starting at startHour on the first day.
func NewClock(dayLength, startHour float64) *Clock {
	if dayLength <= 0 {
		dayLength = 60
	}
	return &Clock{
		dayLength: dayLength,
		days:      startHour / HoursPerDay,
	}
}

// Update advances the clock by delta simulation seconds.
func (c *Clock) Update(delta float64) {
	c.days += delta / c.dayLength
}

// Days returns fractional calendar days since epoch.
func (c *Clock) Days() float64 {
	return c.days
}

// TimeOfDay returns the fraction of the current day that has passed, in [0, 1).
func (c *Clock) TimeOfDay() float64 {
	return c.days - math.Floor(c.days)
}

// Hour returns the fractional hour of the day.
func (c *Clock) Hour() float64 {
	return c.TimeOfDay() * HoursPerDay
}

// IsDay reports whether the sun is up.
func (c *Clock) IsDay() bool {
	h := c.Hour()
	return h >= dawnHour && h < duskHour
}

// Date returns the calendar date, all fields starting at 1.
func (c *Clock) Date() (year, month, day int) {
	d := int(math.Floor(c.days))
	year = d/DaysPerYear + 1
	month = (d%DaysPerYear)/DaysPerMonth + 1
	day = d%DaysPerMonth + 1
	return year, month, day
}

// Time returns the time of day.
func (c *Clock) Time() (hour, minute int, second float64) {
	secs := c.TimeOfDay() * secondsPerDay
	hour = int(secs / (MinutesPerHour * SecondsPerMinute))
	minute = int(math.Mod(secs, MinutesPerHour*SecondsPerMinute) / SecondsPerMinute)
	second = math.Mod(secs, SecondsPerMinute)
	return hour, minute, second
}

// Timestamp formats the date and time as "YYYY/MM/DD HH:MM:SS.ss".
func (c *Clock) Timestamp() string {
	y, mo, d := c.Date()
	h, mi, s := c.Time()
	// Truncate so 59.999 prints as 59.99 rather than rounding to 60.00.
	s = math.Floor(s*100) / 100
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%05.2f", y, mo, d, h, mi, s)
}

// String implements fmt.Stringer.
func (c *Clock) String() string {
	return c.Timestamp()
}
