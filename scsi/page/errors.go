package page

import "fmt"

// ValidationError reports encode options that cannot be turned into a page.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DecodeError reports a device response that does not hold a well-formed page.
// Expected and Actual are set for length and page code mismatches.
type DecodeError struct {
	Page     string
	Offset   int
	Reason   string
	Expected int
	Actual   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s page at offset %d: %s", e.Page, e.Offset, e.Reason)
}

func errShort(page string, offset int, expected int, actual int) error {
	return &DecodeError{
		Page:     page,
		Offset:   offset,
		Reason:   fmt.Sprintf("too small data length: expected >= %d, got %d", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

func errPageCode(page string, expected uint16, actual uint16) error {
	return &DecodeError{
		Page:     page,
		Offset:   0,
		Reason:   fmt.Sprintf("unexpected page code %#04x, expected %#04x", actual, expected),
		Expected: int(expected),
		Actual:   int(actual),
	}
}
