package command

import (
	"fmt"
	"time"

	"github.com/and161185/league-keeper/internal/errs"
)

// HumanTime is the layout used when showing audit timestamps to users.
const HumanTime = "2 Jan 2006 15:04:05 MST"

// ConcurrencyError explains why a write was rejected by CheckConcurrency.
type ConcurrencyError struct {
	Reason  error // errs.ErrStaleConcurrencyToken or errs.ErrMissingConcurrencyToken
	Editor  string
	Updated time.Time
}

func (e *ConcurrencyError) Error() string {
	editor := e.Editor
	if editor == "" {
		editor = "another user"
	}
	if e.Reason == errs.ErrMissingConcurrencyToken {
		return fmt.Sprintf("Unable to update, %s updated this record on %s but no last updated token was provided",
			editor, e.Updated.Format(HumanTime))
	}
	return fmt.Sprintf("Unable to update, %s updated this record on %s, you must refresh to see the latest details",
		editor, e.Updated.Format(HumanTime))
}

func (e *ConcurrencyError) Unwrap() error { return e.Reason }

// CheckConcurrency decides whether a write made by a caller who last saw requestLastUpdated may
// replace a stored entity last written at storedUpdated by storedEditor. It is pure: timestamps
// must match exactly, so a one-microsecond difference is as stale as one hour.
func CheckConcurrency(storedUpdated *time.Time, storedEditor string, requestLastUpdated *time.Time) error {
	switch {
	case storedUpdated == nil:
		return nil
	case requestLastUpdated == nil:
		return &ConcurrencyError{Reason: errs.ErrMissingConcurrencyToken, Editor: storedEditor, Updated: *storedUpdated}
	case !requestLastUpdated.Equal(*storedUpdated):
		return &ConcurrencyError{Reason: errs.ErrStaleConcurrencyToken, Editor: storedEditor, Updated: *storedUpdated}
	default:
		return nil
	}
}
