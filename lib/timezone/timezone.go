package timezone

import (
	"fmt"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Berlin because the portal renders every
// date as local wall-clock time regardless of where this process runs
func Now() time.Time {
	return time.Now().In(Location)
}

// GapError is returned when a wall-clock time does not exist in
// Europe/Berlin because a DST transition skips over it.
type GapError struct {
	Wall time.Time
}

func (e GapError) Error() string {
	return fmt.Sprintf("local time %s does not exist in Europe/Berlin (DST gap)", e.Wall.Format("2006-01-02 15:04"))
}

// ToUTC interprets the given wall-clock components as Europe/Berlin
// local time and converts them to the absolute UTC instant. A time
// that falls into a DST gap yields a GapError instead of the
// normalized instant the time package would silently produce.
func ToUTC(year int, month time.Month, day, hour, min int) (time.Time, error) {
	local := time.Date(year, month, day, hour, min, 0, 0, Location)
	if local.Year() != year || local.Month() != month || local.Day() != day ||
		local.Hour() != hour || local.Minute() != min {
		return time.Time{}, GapError{
			Wall: time.Date(year, month, day, hour, min, 0, 0, time.UTC),
		}
	}
	return local.UTC(), nil
}

// NaiveToUTC is ToUTC for an already-parsed naive time (one parsed by
// time.Parse without zone information).
func NaiveToUTC(naive time.Time) (time.Time, error) {
	return ToUTC(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute())
}
