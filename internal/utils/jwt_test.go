package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer  = "questlog"
	testSignKey = "test-sign-key"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 42, time.Hour, testSignKey)

	require.NoError(t, err)
	assert.NotEmpty(t, token.SignedString)
	assert.Equal(t, int64(42), token.UserID)
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		duration time.Duration
		signKey  string
	}{
		{name: "empty issuer", issuer: "", duration: time.Hour, signKey: testSignKey},
		{name: "zero duration", issuer: testIssuer, duration: 0, signKey: testSignKey},
		{name: "empty sign key", issuer: testIssuer, duration: time.Hour, signKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, 1, tt.duration, tt.signKey)
			require.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_RoundTrip(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 7, time.Hour, testSignKey)
	require.NoError(t, err)

	parsed, err := ValidateAndParseJWTToken(issued.SignedString, testSignKey, testIssuer)

	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.UserID)
}

func TestValidateAndParseJWTToken_WrongKey(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 7, time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(issued.SignedString, "other-key", testIssuer)

	require.Error(t, err)
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 7, time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(issued.SignedString, testSignKey, "someone-else")

	require.Error(t, err)
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 7, time.Nanosecond, testSignKey)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = ValidateAndParseJWTToken(issued.SignedString, testSignKey, testIssuer)

	require.Error(t, err)
}

func TestParseBearerToken(t *testing.T) {
	token, err := ParseBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ParseBearerToken("abc.def.ghi")
	require.Error(t, err)

	_, err = ParseBearerToken("Bearer ")
	require.Error(t, err)
}

func TestParseUserIDFromJWT(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 99, time.Hour, testSignKey)
	require.NoError(t, err)

	id, err := ParseUserIDFromJWT(issued.SignedString)
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
}

func TestUUIDGenerator_Generate(t *testing.T) {
	g := NewUUIDGenerator()

	first := g.Generate()
	second := g.Generate()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
