package services

import (
	"errors"
	"strconv"
	"strings"
)

// Quantity holds the raw JSON token of a quantity field. Decoding never
// fails, so a string, boolean or object is reported against its own line or
// field instead of rejecting the whole body.
type Quantity []byte

func (q *Quantity) UnmarshalJSON(b []byte) error {
	*q = append((*q)[:0], b...)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if len(q) == 0 {
		return []byte("null"), nil
	}
	return q, nil
}

// Int reads q as an integer JSON number. problem is "is required" or
// "must be an integer" when q holds something else. Values out of the int64
// range are clamped so callers report them against their own bounds.
func (q Quantity) Int() (n int64, problem string) {
	tok := strings.TrimSpace(string(q))
	if tok == "" || tok == "null" {
		return 0, "is required"
	}
	if c := tok[0]; c != '-' && (c < '0' || c > '9') {
		return 0, "must be an integer"
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, "must be an integer"
	}
	return n, ""
}
