package txn

import "errors"

// Protocol misuse errors. A failed transition never changes manager state.
var (
	ErrActive    = errors.New("transaction already active")
	ErrNotActive = errors.New("no active transaction")
)
