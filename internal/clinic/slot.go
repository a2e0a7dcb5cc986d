package clinic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "1/2/2006"

	firstStartHour = 8
	lastStartHour  = 16
	closingHour    = 17
)

// TimeSlot is the half-open interval [StartHour:00, EndHour:EndMinute).
type TimeSlot struct {
	StartHour int
	EndHour   int
	EndMinute int
}

// String renders the canonical stored form, e.g. "9:00-10:30".
func (s TimeSlot) String() string {
	return fmt.Sprintf("%d:00-%d:%02d", s.StartHour, s.EndHour, s.EndMinute)
}

func (s TimeSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TimeSlot) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeSlot(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseTimeSlot reads a stored "H:MM-H:MM" slot back into a TimeSlot.
func ParseTimeSlot(text string) (TimeSlot, error) {
	startText, endText, ok := strings.Cut(text, "-")
	if !ok {
		return TimeSlot{}, fmt.Errorf("malformed time slot %q", text)
	}
	startHour, _, err := parseClock(startText)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("malformed time slot %q: %w", text, err)
	}
	endHour, endMinute, err := parseClock(endText)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("malformed time slot %q: %w", text, err)
	}
	return TimeSlot{StartHour: startHour, EndHour: endHour, EndMinute: endMinute}, nil
}

// ParseDate parses an MM/DD/YYYY calendar date into UTC midnight.
func ParseDate(text string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return d, nil
}

// ValidateSlot checks a proposed appointment date and time window against
// the clinic's operating hours. Rules are applied in order: date, start, end.
func ValidateSlot(dateText, startText, endText string) (time.Time, TimeSlot, error) {
	date, err := ParseDate(dateText)
	if err != nil {
		return time.Time{}, TimeSlot{}, err
	}

	startHour, startMinute, err := parseClock(startText)
	if err != nil || startHour < firstStartHour || startHour > lastStartHour || startMinute != 0 {
		return time.Time{}, TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidStart, startText)
	}

	endHour, endMinute, err := parseClock(endText)
	if err != nil || endHour <= startHour || endHour > closingHour {
		return time.Time{}, TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidEnd, endText)
	}
	if endHour == closingHour {
		endMinute = 0
	}

	return date, TimeSlot{StartHour: startHour, EndHour: endHour, EndMinute: endMinute}, nil
}

// parseClock parses "H:MM" on a 24h clock.
func parseClock(text string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(text), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
		return 0, 0, fmt.Errorf("malformed clock time %q", text)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed clock time %q", text)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed clock time %q", text)
	}
	return hour, minute, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
