package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesOptions(t *testing.T) {
	c := New("localhost:6390", 3, 90*time.Second)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "localhost:6390", c.Cli.Options().Addr)
	assert.Equal(t, 3, c.Cli.Options().DB)
	assert.Equal(t, 90*time.Second, c.TTL)
}

func TestUnreachableServerIsNotAMiss(t *testing.T) {
	// Port 1 is never a redis server; the error must surface as-is.
	c := New("127.0.0.1:1", 0, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Get(ctx, "post:x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
