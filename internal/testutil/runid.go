package testutil

import "github.com/google/uuid"

// FixedRunIDGenerator generates the same run id every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same load with the same FixedRunIDGenerator produces byte-identical output.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id uuid.UUID
}

// NewFixedRunIDGenerator creates a generator returning id.
//
// If id is empty or not a valid UUID, Generate() returns
// 00000000-0000-7000-8000-000000000001.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	parsed, err := uuid.Parse(id)
	if err != nil {
		parsed = uuid.MustParse("00000000-0000-7000-8000-000000000001")
	}
	return &FixedRunIDGenerator{id: parsed}
}

// Generate returns the fixed run id.
//
// Implements loader.RunIDGenerator interface.
func (g *FixedRunIDGenerator) Generate() uuid.UUID {
	return g.id
}
