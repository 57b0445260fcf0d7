package conversation

import (
	"errors"
	"regexp"
	"time"
)

// Trip dates are typed by the user as DD-MM-YYYY.
const tripDateLayout = "02-01-2006"

var errInvalidDate = errors.New("invalid trip date")

// parseTripDate parses a user-typed trip date and rejects anything in the
// past. Today is acceptable.
func parseTripDate(input string, now time.Time) (time.Time, error) {
	d, err := time.Parse(tripDateLayout, input)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return time.Time{}, errInvalidDate
	}
	return d, nil
}

// locationKeyPattern matches the "place: start - end" label a location list
// keyboard offers, with dates in YYYY-MM-DD.
var locationKeyPattern = regexp.MustCompile(`^(.+): (\d{4}-\d{2}-\d{2}) - (\d{4}-\d{2}-\d{2})$`)

// parseLocationKey splits a location label back into its addressing triple.
func parseLocationKey(input string) (place string, dateStart, dateEnd time.Time, err error) {
	m := locationKeyPattern.FindStringSubmatch(input)
	if m == nil {
		return "", time.Time{}, time.Time{}, errors.New("malformed location key")
	}
	dateStart, err = time.Parse(time.DateOnly, m[2])
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	dateEnd, err = time.Parse(time.DateOnly, m[3])
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return m[1], dateStart, dateEnd, nil
}
