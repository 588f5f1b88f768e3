package store

import "errors"

// ErrAttemptTerminal is returned when updating a completed verification
// attempt. Completed attempts are immutable.
var ErrAttemptTerminal = errors.New("verification attempt is completed and cannot be mutated")
