package models

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a JWT session token with convenience accessors.
//
// SignedString holds the compact serialized form (header.payload.signature)
// ready to travel in an Authorization header. UserID is a cached copy of
// the "sub" claim parsed to int64, populated during generation or
// validation so callers never re-parse the subject string.
type Token struct {
	// Token is the underlying JWT used for signing and claim inspection.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides access to the standard JWT claim set
	// (sub, exp, iat, nbf, iss, aud, jti) as defined by RFC 7519.
	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// UserID is the account identifier extracted from the "sub" claim.
	UserID int64 `json:"-"`
}

// GetUserID extracts the account id from the token's subject claim and
// caches it on the receiver.
func (t *Token) GetUserID() (int64, error) {
	if t.Token == nil {
		return 0, errors.New("token is not parsed")
	}

	sub, err := t.Token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, err
	}

	t.UserID = id
	return id, nil
}

// String returns the compact serialized token.
func (t *Token) String() string {
	return t.SignedString
}
