// Package tips implements clients for the ham and degen tipping APIs:
// tip verification, per-user scores, and the floaty leaderboards.
package tips

import (
	"math"
	"strconv"
	"strings"
)

const weiPerToken = 1e18

// NormalizeNumbers walks a decoded JSON value and rewrites its numbers for
// readability: values in wei (>= 1e18) are converted to whole tokens, and
// anything with more than four decimal places is rounded to four. Numeric
// strings get the same treatment; wei amounts usually arrive as strings
// because they overflow doubles. The walk mutates maps and slices in place
// and returns the value for convenience.
func NormalizeNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = NormalizeNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = NormalizeNumbers(item)
		}
		return v
	case float64:
		return normalizeNumber(v)
	case string:
		return normalizeNumericString(v)
	default:
		return value
	}
}

func normalizeNumber(n float64) float64 {
	if math.Abs(n) >= weiPerToken {
		n /= weiPerToken
	}
	return math.Round(n*10000) / 10000
}

// normalizeNumericString rewrites a string that holds a number. Overlong
// decimals become rounded numbers; wei-scale values stay strings after
// conversion. Anything non-numeric passes through untouched.
func normalizeNumericString(s string) any {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if dot := strings.Index(s, "."); dot >= 0 && len(s)-dot-1 > 4 {
		return math.Round(n*10000) / 10000
	}
	if math.Abs(n) >= weiPerToken {
		return strconv.FormatFloat(normalizeNumber(n), 'f', -1, 64)
	}
	return s
}
