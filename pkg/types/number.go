package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a float64 that tolerates the Poster API habit of serializing
// numeric fields as JSON strings ("12.50", "0"). Null and empty-string
// values decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("unquote number %s: %w", raw, err)
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", raw, err)
	}
	*n = Number(parsed)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) Int64() int64 {
	return int64(n)
}

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}
