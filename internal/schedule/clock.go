// Package schedule parses and formats the event date and time inputs used by
// the booking form.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock = errors.New("invalid time")
	ErrInvalidDate  = errors.New("invalid event date")
)

var clockInput = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// ParseClock turns free-form input such as "7", "7pm", "7:15 am" or "19:45"
// into a 24-hour "HH:MM" value on the half-hour grid. A bare hour from 1 to
// 11 is read as an evening time.
func ParseClock(input string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(input))
	match := clockInput.FindStringSubmatch(cleaned)
	if match == nil {
		return "", ErrInvalidClock
	}

	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}
	period := match[3]

	if hour > 23 || minute >= 60 {
		return "", ErrInvalidClock
	}

	switch {
	case period != "" && hour > 12:
		return "", ErrInvalidClock
	case period == "pm" && hour != 12:
		hour += 12
	case period == "am" && hour == 12:
		hour = 0
	case period == "" && hour >= 1 && hour <= 11:
		hour += 12
	}

	rounded := int(math.Round(float64(minute)/30)) * 30
	if rounded == 60 {
		rounded = 0
		hour = (hour + 1) % 24
	}

	return fmt.Sprintf("%02d:%02d", hour, rounded), nil
}

// FormatClock renders "HH:MM" as 12-hour text, e.g. "17:30" -> "5:30 PM".
func FormatClock(value string) string {
	if value == "" {
		return ""
	}
	hourRaw, minRaw, found := strings.Cut(value, ":")
	if !found {
		return ""
	}
	hour, err := strconv.Atoi(hourRaw)
	if err != nil {
		return ""
	}
	minute, err := strconv.Atoi(minRaw)
	if err != nil {
		return ""
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	displayHour := hour
	switch {
	case hour == 0:
		displayHour = 12
	case hour > 12:
		displayHour = hour - 12
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}

// ClockOptions lists every half-hour slot of the day.
func ClockOptions() []string {
	options := make([]string, 0, 48)
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute += 30 {
			options = append(options, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return options
}

// ValidClock reports whether value is a strict 24-hour "HH:MM" string.
func ValidClock(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil && len(value) == 5
}

// ParseEventDate validates an ISO calendar date. Empty input is allowed and
// means unset.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return parsed, nil
}
