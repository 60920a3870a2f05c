// Package utils provides general-purpose helper utilities used across
// different parts of the application: type-safe context keys, JWT token
// generation and validation, and identifier generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys. Using a dedicated type
// instead of a plain string prevents key collisions with other packages
// that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey is the key used to store the account identifier in the
// context. Used together with GetUserIDFromContext for type-safe
// retrieval.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.UserIDCtxKey, int64(42))
var UserIDCtxKey = contextKey("userID")

// GetUserIDFromContext retrieves the account identifier from the context.
//
// Returns the user ID and an ok flag:
//   - ok == true  — value is found and has the correct int64 type
//   - ok == false — value is missing or has an unexpected type
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}
