package backlight

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind says how an Adjustment's value is applied.
type Kind uint8

const (
	AbsoluteRaw Kind = iota
	AbsolutePercent
	RelativeRaw
	RelativePercent
)

func (k Kind) String() string {
	switch k {
	case AbsoluteRaw:
		return "absolute"
	case AbsolutePercent:
		return "absolute-percent"
	case RelativeRaw:
		return "relative"
	case RelativePercent:
		return "relative-percent"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// An Adjustment is a parsed brightness value argument. Value is never
// negative for the absolute kinds.
type Adjustment struct {
	Kind  Kind
	Value int64
}

func (a Adjustment) String() string {
	s := strconv.FormatInt(a.Value, 10)
	if a.Kind == RelativeRaw || a.Kind == RelativePercent {
		if a.Value >= 0 {
			s = "+" + s
		}
	}
	if a.Kind == AbsolutePercent || a.Kind == RelativePercent {
		s += "%"
	}
	return s
}

// ValueForms describes the accepted value arguments.
const ValueForms = "expected [+|-]<number>[%], e.g. +50, -10, 200, 50%, +10%"

var valuePattern = regexp.MustCompile(`^[+-]?[0-9]+%?$`)

// ValidateValue checks s against the value grammar. The empty string is
// valid; it means that no value was given.
func ValidateValue(s string) error {
	if s == "" || valuePattern.MatchString(s) {
		return nil
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidArgument, s, ValueForms)
}

// ParseAdjustment parses a value argument. A leading sign makes the
// adjustment relative and a trailing % makes it a percentage of the
// maximum. Unlike ValidateValue, it rejects the empty string.
func ParseAdjustment(s string) (Adjustment, error) {
	if !valuePattern.MatchString(s) {
		return Adjustment{}, fmt.Errorf("%w %q: %s", ErrInvalidArgument, s, ValueForms)
	}
	num, percent := strings.CutSuffix(s, "%")
	var (
		adj Adjustment
		err error
	)
	if num[0] == '+' || num[0] == '-' {
		adj.Kind = RelativeRaw
		if percent {
			adj.Kind = RelativePercent
		}
		adj.Value, err = strconv.ParseInt(num, 10, 32)
	} else {
		adj.Kind = AbsoluteRaw
		if percent {
			adj.Kind = AbsolutePercent
		}
		var n uint64
		n, err = strconv.ParseUint(num, 10, 32)
		adj.Value = int64(n)
	}
	if err != nil {
		return Adjustment{}, fmt.Errorf("%w %q: number out of range", ErrInvalidArgument, s)
	}
	return adj, nil
}

// Compute returns the brightness that adj yields from current, clamped
// to [0, max]. Percentages of max are rounded half away from zero.
func Compute(current, max uint64, adj Adjustment) uint64 {
	cur, m := int64(current), int64(max)
	var target int64
	switch adj.Kind {
	case AbsoluteRaw:
		target = adj.Value
	case AbsolutePercent:
		target = percentOf(m, adj.Value)
	case RelativeRaw:
		target = cur + adj.Value
	case RelativePercent:
		target = cur + percentOf(m, adj.Value)
	default:
		target = cur
	}
	if target < 0 {
		return 0
	}
	if target > m {
		return max
	}
	return uint64(target)
}

// percentOf saturates pct to [-100, 100] first. Anything past that lands
// outside [0, max] after adding to a value in range, so the clamp in
// Compute gives the same result.
func percentOf(max, pct int64) int64 {
	if pct > 100 {
		pct = 100
	}
	if pct < -100 {
		pct = -100
	}
	n := max * pct
	if n < 0 {
		return -((-n + 50) / 100)
	}
	return (n + 50) / 100
}
