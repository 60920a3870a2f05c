package store

import "errors"

// Sentinel errors shared by all storage backends. Repositories wrap them
// with fmt.Errorf("%w: %w", ...) so callers can classify failures with
// errors.Is while logs keep the driver detail.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrLoginTaken     = errors.New("login already taken")
	ErrOpeningTx      = errors.New("error opening transaction")
	ErrCommittingTx   = errors.New("error committing transaction")
	ErrExecutingQuery = errors.New("error executing query")
	ErrBuildingQuery  = errors.New("error building query")
	ErrScanningRow    = errors.New("error scanning row")
	ErrScanningRows   = errors.New("error during rows iteration")
)
