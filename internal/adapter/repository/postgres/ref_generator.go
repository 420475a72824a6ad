package postgres

import "github.com/oklog/ulid/v2"

// ULIDGenerator implements usecase.RefGenerator. ULIDs sort by creation time,
// which keeps index pages warm on append-heavy tables.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
