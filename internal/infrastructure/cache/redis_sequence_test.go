package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSequence struct {
	bases []string
}

func (s *countingSequence) Next(_ context.Context, base string) (int, error) {
	s.bases = append(s.bases, base)
	return len(s.bases), nil
}

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisSequence_FallsBackWhenUnavailable(t *testing.T) {
	fallback := &countingSequence{}
	seq := NewRedisSequence(unreachableClient(t), fallback)

	n, err := seq.Next(context.Background(), "PREFIX_8438_270126_2219")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"PREFIX_8438_270126_2219"}, fallback.bases)
}

func TestRedisSequence_WithoutFallbackReturnsError(t *testing.T) {
	seq := NewRedisSequence(unreachableClient(t), nil)

	_, err := seq.Next(context.Background(), "PREFIX_8438_270126_2219")
	assert.Error(t, err)
}
