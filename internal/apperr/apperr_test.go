package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCause = errors.New("cause")

func TestKindOf_WalksChain(t *testing.T) {
	err := fmt.Errorf("stage: %w", Wrap(KindTimeout, "stt.poll", errCause, "Transcription timed out."))

	assert.Equal(t, KindTimeout, KindOf(err))
	assert.ErrorIs(t, err, errCause)
	assert.Equal(t, "stage: Transcription timed out.", err.Error())
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errCause))
}

func TestError_FallsBackToCause(t *testing.T) {
	assert.Equal(t, "cause", Wrap(KindStorage, "op", errCause, "").Error())
	assert.Equal(t, "not_configured", New(KindNotConfigured, "op", "").Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:        http.StatusBadRequest,
		KindNotFound:            http.StatusNotFound,
		KindUpstreamUnavailable: http.StatusBadGateway,
		KindUpstreamMalformed:   http.StatusBadGateway,
		KindTimeout:             http.StatusGatewayTimeout,
		KindNotConfigured:       http.StatusServiceUnavailable,
		KindStorage:             http.StatusInternalServerError,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}
