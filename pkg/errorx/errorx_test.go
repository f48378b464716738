package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBadGateway = 109901

func init() {
	MustRegister(defaultCoder{code: testBadGateway, http: http.StatusBadGateway, msg: "Upstream request failed"})
}

func TestParseCoder(t *testing.T) {
	err := WithCode(testBadGateway, "post %s", "/v1/chat/completions")
	coder := ParseCoder(err)
	require.NotNil(t, coder)
	assert.Equal(t, testBadGateway, coder.Code())
	assert.Equal(t, http.StatusBadGateway, coder.HTTPStatus())
	assert.Equal(t, "Upstream request failed", coder.String())

	// The coder survives fmt wrapping.
	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, testBadGateway, ParseCoder(wrapped).Code())

	assert.Nil(t, ParseCoder(nil))
	assert.Equal(t, unknownCoder.Code(), ParseCoder(errors.New("plain")).Code())
	// A coded error whose code was never registered resolves to unknown.
	assert.Equal(t, unknownCoder.Code(), ParseCoder(WithCode(424242, "stray")).Code())
}

func TestWrapC(t *testing.T) {
	assert.Nil(t, WrapC(nil, testBadGateway, "ignored"))

	cause := errors.New("dial tcp: connection refused")
	err := WrapC(cause, testBadGateway, "connect upstream")
	assert.Equal(t, "connect upstream: dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	cause := WithCode(testBadGateway, "upstream status 502")
	err := WrapC(cause, 100999, "splice continuation")

	assert.True(t, IsCode(err, 100999))
	assert.True(t, IsCode(err, testBadGateway))
	assert.False(t, IsCode(err, 123456))
	assert.False(t, IsCode(errors.New("plain"), testBadGateway))
	assert.False(t, IsCode(nil, testBadGateway))
}
