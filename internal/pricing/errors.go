package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownPeriod indicates an unrecognised period token.
	ErrUnknownPeriod = errors.New("pricing: unknown period token")
	// ErrEmptyStore indicates the record store holds no data at all. A range
	// with zero matching records on a populated store is not an error.
	ErrEmptyStore = errors.New("pricing: record store is empty")
)

// ValidationError reports a malformed quote value in an ingestion row. It
// fails only the row that carries it; the rest of the batch proceeds.
type ValidationError struct {
	Date   time.Time
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quote %q on %s: %s", e.Field, e.Date.Format(DateFormat), e.Reason)
}
