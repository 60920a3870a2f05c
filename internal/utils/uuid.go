package utils

import "github.com/google/uuid"

// UUIDGenerator produces record identifiers. Version 7 UUIDs are
// preferred so identifiers sort roughly by creation time; falls back to
// v4 when the monotonic source is unavailable.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
