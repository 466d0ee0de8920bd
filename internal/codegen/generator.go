package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	codeLength = 6
	charset    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// The code space (36^6) is large relative to expected coupon
	// volume, so repeated collisions indicate a configuration
	// problem rather than bad luck. Exhaustion is fatal, never a
	// silent loop.
	maxAttempts = 20
)

// ErrExhausted is returned when every generation attempt collided
// with an existing code.
var ErrExhausted = errors.New("coupon code space exhausted")

// CodeChecker reports whether a code is already present in the
// catalog.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// Generator produces short unique coupon codes, retrying on
// collision against the catalog.
type Generator struct {
	catalog CodeChecker
}

func NewGenerator(catalog CodeChecker) *Generator {
	return &Generator{catalog: catalog}
}

// Generate returns a 6-character uppercase alphanumeric code not yet
// present in the catalog.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		exists, err := g.catalog.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, maxAttempts)
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}
