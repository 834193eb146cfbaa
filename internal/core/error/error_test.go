package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "plain", err: errors.New("boom"), status: http.StatusInternalServerError, message: SystemErrorMessage},
		{name: "not found", err: NotFound(ProductNotFoundMessage), status: http.StatusNotFound, message: ProductNotFoundMessage},
		{name: "wrapped not found", err: fmt.Errorf("get: %w", NotFound("gone")), status: http.StatusNotFound, message: "gone"},
		{name: "invalid", err: Invalid(errors.New("missing brand")), status: http.StatusUnprocessableEntity, message: "missing brand"},
		{name: "redis nil", err: WrapRedis(redis.Nil), status: http.StatusNotFound, message: RedisNotFoundMessage},
		{name: "redis other", err: WrapRedis(errors.New("conn refused")), status: http.StatusBadGateway, message: RedisErrorMessage},
		{name: "store", err: WrapStore(errors.New("disk full")), status: http.StatusInternalServerError, message: StoreErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, tt.message, MessageOf(tt.err))
		})
	}
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.NoError(t, WrapStore(nil))

	nf := NotFound("x")
	assert.Same(t, nf, WrapStore(nf))
	assert.ErrorIs(t, nf, ErrNotFound)

	cause := errors.New("cause")
	assert.ErrorIs(t, WrapStore(cause), cause)
	assert.Equal(t, "vector store operation failed: cause", WrapStore(cause).Error())
}
