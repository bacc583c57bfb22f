package ledger

import "errors"

// ErrNoAccess deliberately merges "not found" and "not authorized": a
// caller probing for accounts it does not own learns nothing about whether
// they exist.
var ErrNoAccess = errors.New("not found or not authorized")
