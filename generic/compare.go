package generic

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STRING FORM - What search and filters match against
// =============================================================================

// Stringify returns the plain string form of a cell value. Nil values and nil
// pointers are the empty string. Numbers use the shortest exact form (4.5,
// not 4.500000). Times are RFC3339.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case []string:
		return strings.Join(x, ",")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// containsFold is a case-insensitive substring test. needle must already be
// lower-cased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// =============================================================================
// ORDERING - Natural order of raw cell values
// =============================================================================

// Compare orders two raw cell values: -1 if a < b, 1 if a > b, 0 otherwise.
//
// Numbers compare numerically across int, float64 and decimal.Decimal. NaN
// sorts before every other number and the infinities sort at the ends.
// Strings compare lexicographically, times chronologically, and false sorts
// before true. Nil, nil pointers and values of different kinds compare equal,
// which leaves their relative order to the stable sort.
func Compare(a, b any) int {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return 0
	}

	if an, ok := numeric(a); ok {
		if bn, ok := numeric(b); ok {
			return compareNumbers(an, bn)
		}
		return 0
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok && x != y {
			if !x {
				return -1
			}
			return 1
		}
	case fmt.Stringer:
		if y, ok := b.(fmt.Stringer); ok {
			return strings.Compare(x.String(), y.String())
		}
	}
	return 0
}

func deref(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// number is a numeric cell value. Integers and decimals also carry their
// exact form so they never lose precision against each other.
type number struct {
	f       float64
	exact   decimal.Decimal
	isExact bool
}

func numeric(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{f: float64(x), exact: decimal.NewFromInt(int64(x)), isExact: true}, true
	case int64:
		return number{f: float64(x), exact: decimal.NewFromInt(x), isExact: true}, true
	case float64:
		return number{f: x}, true
	case decimal.Decimal:
		return number{f: x.InexactFloat64(), exact: x, isExact: true}, true
	}
	return number{}, false
}

// compareNumbers goes through decimal only when a float is finite, since
// decimal.NewFromFloat panics on NaN and the infinities.
func compareNumbers(a, b number) int {
	switch {
	case a.isExact && b.isExact:
		return a.exact.Cmp(b.exact)
	case a.isExact && finite(b.f):
		return a.exact.Cmp(decimal.NewFromFloat(b.f))
	case b.isExact && finite(a.f):
		return decimal.NewFromFloat(a.f).Cmp(b.exact)
	}
	return cmp.Compare(a.f, b.f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
