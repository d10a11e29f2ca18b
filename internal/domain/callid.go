package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCallIDEmpty   = errors.New("call id empty")
	ErrCallIDInvalid = errors.New("call id must be <base>-<suffix>")
)

// CallID identifies one call attempt as "<base>-<suffix>". The base is
// stable across "call again"; the suffix changes with every attempt.
type CallID string

// NewCallID derives a call id from base and the millisecond clock.
func NewCallID(base string, now time.Time) CallID {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "call"
	}
	return CallID(fmt.Sprintf("%s-%d", base, now.UnixMilli()))
}

// ParseCallID validates the "<base>-<suffix>" shape.
func ParseCallID(s string) (CallID, error) {
	if s == "" {
		return "", ErrCallIDEmpty
	}
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return "", fmt.Errorf("%q: %w", s, ErrCallIDInvalid)
	}
	return CallID(s), nil
}

func (id CallID) String() string { return string(id) }

// Base returns the stable segment shared by every attempt.
func (id CallID) Base() string {
	s := string(id)
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

func (id CallID) suffix() (int64, bool) {
	s := string(id)
	i := strings.LastIndexByte(s, '-')
	if i <= 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Next returns a fresh identifier for a new attempt with the same base.
// The suffix is strictly greater than the current one even if the clock
// has not moved.
func (id CallID) Next(now time.Time) CallID {
	n := now.UnixMilli()
	if cur, ok := id.suffix(); ok && n <= cur {
		n = cur + 1
	}
	return CallID(fmt.Sprintf("%s-%d", id.Base(), n))
}
