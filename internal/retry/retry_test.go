package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 3, Base: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 2, Base: time.Millisecond}, func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentIsNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 5, Base: time.Millisecond}, func(context.Context) error {
		calls++
		return Permanent(errFlaky)
	})
	assert.ErrorIs(t, err, errFlaky)
	var perm *permanentError
	assert.False(t, errors.As(err, &perm), "the permanent marker is stripped")
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Retries: 5, Base: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(http.StatusTooManyRequests))
	assert.True(t, Transient(http.StatusBadGateway))
	assert.False(t, Transient(http.StatusUnauthorized))
	assert.False(t, Transient(http.StatusOK))
}
