// Package version compares dotted version strings such as "1.0.3" or "v2.1".
package version

import (
	"strconv"
	"strings"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

// Normalize strips one optional leading "v"
func Normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Compare returns 1 if a > b, -1 if a < b and 0 if they are equal.
//
// Segments are compared numerically left to right and a missing segment
// counts as 0, so "1.2" equals "1.2.0". A segment that is not a number
// also counts as 0; use Check to detect that case.
func Compare(a, b string) int {
	pa := segments(a)
	pb := segments(b)

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if x > y {
			return 1
		}
		if x < y {
			return -1
		}
	}

	return 0
}

// Check reports a Parse error naming the first segment of v that Compare
// would coerce to 0.
func Check(v string) error {
	for i, s := range strings.Split(Normalize(v), ".") {
		if _, ok := parseSegment(s); !ok {
			return apperr.New(apperr.Parse, "version %q: segment %d (%q) is not numeric", v, i+1, s)
		}
	}
	return nil
}

func segments(v string) []uint64 {
	parts := strings.Split(Normalize(v), ".")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		out[i], _ = parseSegment(p)
	}
	return out
}

func parseSegment(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		// an empty segment reads as zero, the same way "" converts to 0 in a
		// number cast, and is not reported as malformed
		return 0, true
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
