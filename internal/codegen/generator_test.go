package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	collisions int
	calls      int
	err        error
}

func (s *stubChecker) CodeExists(ctx context.Context, code string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.calls <= s.collisions, nil
}

func TestGenerateFormat(t *testing.T) {
	g := NewGenerator(&stubChecker{})

	for i := 0; i < 50; i++ {
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(charset, r), "unexpected character %q in code %s", r, code)
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	checker := &stubChecker{collisions: 3}
	g := NewGenerator(checker)

	code, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, 4, checker.calls)
}

func TestGenerateExhaustion(t *testing.T) {
	g := NewGenerator(&stubChecker{collisions: maxAttempts + 1})

	_, err := g.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestGeneratePropagatesCatalogError(t *testing.T) {
	boom := errors.New("catalog down")
	g := NewGenerator(&stubChecker{err: boom})

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, boom)
}
