package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		l, err := New(Config{})
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(Config{Level: "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestGetBeforeInit(t *testing.T) {
	assert.NotNil(t, Get())
	assert.NotNil(t, WithContext(context.WithValue(context.Background(), ModelKey, "orders.yaml")))
}
