package common

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestEffort(t *testing.T) {
	ctx := context.Background()

	t.Run("all succeed", func(t *testing.T) {
		var calls int32
		ops := make([]func(context.Context) error, 5)
		for i := range ops {
			ops[i] = func(context.Context) error {
				atomic.AddInt32(&calls, 1)
				return nil
			}
		}

		succeeded, failures := BestEffort(ctx, ops)
		assert.Equal(t, 5, succeeded)
		assert.Empty(t, failures)
		assert.EqualValues(t, 5, calls)
	})

	t.Run("failures collected, rest still run", func(t *testing.T) {
		boom := errors.New("boom")
		ops := []func(context.Context) error{
			func(context.Context) error { return nil },
			func(context.Context) error { return boom },
			func(context.Context) error { return nil },
			func(context.Context) error { return boom },
		}

		succeeded, failures := BestEffort(ctx, ops)
		assert.Equal(t, 2, succeeded)
		assert.Len(t, failures, 2)
	})

	t.Run("no ops", func(t *testing.T) {
		succeeded, failures := BestEffort(ctx, nil)
		assert.Zero(t, succeeded)
		assert.Empty(t, failures)
	})
}
