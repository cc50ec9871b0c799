package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a day in minutes. "24:00" parses to this value.
const MinutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
// Exactly one day renders as "24:00"; anything past that wraps.
func FormatClock(minutes int) string {
	if minutes == MinutesPerDay {
		return "24:00"
	}
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Compare returns -1, 0 or 1 depending on whether a is before, equal to or after b.
func Compare(a, b string) (int, error) {
	d, err := Delta(b, a)
	if err != nil {
		return 0, err
	}
	switch {
	case d < 0:
		return -1, nil
	case d > 0:
		return 1, nil
	}
	return 0, nil
}

// Add returns t shifted by the given number of minutes.
func Add(t string, minutes int) (string, error) {
	m, err := ParseClock(t)
	if err != nil {
		return "", err
	}
	return FormatClock(m + minutes), nil
}

// Delta returns to - from in minutes. The result is negative when to is earlier.
func Delta(from, to string) (int, error) {
	f, err := ParseClock(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseClock(to)
	if err != nil {
		return 0, err
	}
	return t - f, nil
}

// Max returns the later of two clock strings.
func Max(a, b string) (string, error) {
	c, err := Compare(a, b)
	if err != nil {
		return "", err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}

// Min returns the earlier of two clock strings.
func Min(a, b string) (string, error) {
	c, err := Compare(a, b)
	if err != nil {
		return "", err
	}
	if c <= 0 {
		return a, nil
	}
	return b, nil
}

// Overnight reports whether a venue open from open to close spans midnight,
// i.e. its closing time is listed before its opening time.
func Overnight(open, close string) (bool, error) {
	c, err := Compare(close, open)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}
