package provider

import (
	"fmt"

	mathrand "math/rand/v2"

	"github.com/google/uuid"
)

// rngReader adapts the seeded PRNG to io.Reader so uuid generation stays
// deterministic under a fixed seed.
type rngReader struct {
	rng *mathrand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.IntN(256))
	}
	return len(p), nil
}

// UUID produces a v4 UUID from the seeded stream.
func UUID(req *Request) (any, error) {
	id, err := uuid.NewRandomFromReader(rngReader{rng: req.Rand})
	if err != nil {
		return nil, fmt.Errorf("uuid generation: %w", err)
	}
	return id.String(), nil
}

// Identifier produces an identifier per the identifier policy: "uuid"
// (default) or "short" 16-char hex with an optional prefix.
func Identifier(req *Request) (any, error) {
	if req.Identifiers.Style == "short" {
		return req.Identifiers.Prefix + hexDigits(req.Rand, 16), nil
	}
	return UUID(req)
}
