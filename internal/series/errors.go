package series

import (
	"errors"
	"fmt"
)

// ErrMalformedResult indicates a query response that does not have the
// expected columnar shape.
//
//	if errors.Is(err, series.ErrMalformedResult) {
//	    // the database answered with something we cannot reshape
//	}
var ErrMalformedResult = errors.New("series: malformed result")

// MalformedResultError reports a row whose value count differs from the
// series' column count.
type MalformedResultError struct {
	Series  string
	Row     int
	Columns int
	Values  int
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("%v: series %q row %d has %d values for %d columns",
		ErrMalformedResult, e.Series, e.Row, e.Values, e.Columns)
}

func (e *MalformedResultError) Is(target error) bool {
	return target == ErrMalformedResult
}
