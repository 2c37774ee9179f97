package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestCode(t *testing.T) {
	assert.Equal(t, codes.OK, Code(nil), "code should be OK")

	err := fmt.Errorf("test error")
	assert.Equal(t, codes.Unknown, Code(err), "code should be unknown")

	err = WithCode(err, codes.InvalidArgument)
	assert.Equal(t, codes.InvalidArgument, Code(err), "code should be InvalidArgument")

	err = WithCode(err, codes.AlreadyExists)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should be AlreadyExists")

	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should still be AlreadyExists")
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, 200, HTTPStatusCode(nil), "non errors should 200")

	err := fmt.Errorf("test error")
	assert.Equal(t, 500, HTTPStatusCode(err), "should default to 500")

	err = WithCode(err, codes.FailedPrecondition)
	assert.Equal(t, 412, HTTPStatusCode(err), "code should map to 412 http error")

	err = WithHTTPStatusCode(err, 409)
	assert.Equal(t, 409, HTTPStatusCode(err), "http status code should override code")

	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, 409, HTTPStatusCode(err), "http status code should still be 409")
}

func TestPrefix(t *testing.T) {
	err := fmt.Errorf("test error")
	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, "wrapped: test error", err.Error(), "error should have prefix")
}

func TestAppend(t *testing.T) {
	err := NewC("boom", codes.Internal).WithPublicMessage("something broke")
	err = err.Append("stage two")
	assert.Equal(t, "stage two: boom", err.Error())
	assert.Equal(t, "something broke", err.PublicMessage(), "public message should survive Append")
	assert.Equal(t, codes.Internal, err.Code(), "code should survive Append")
}

func TestPublicMessage(t *testing.T) {
	err := New("database exploded: password=hunter2")
	assert.Equal(t, "database exploded: password=hunter2", PublicMessage(err),
		"falls back to the internal message when none set")

	err = err.WithPublicMessage("An internal error occurred")
	assert.Equal(t, "An internal error occurred", PublicMessage(err))

	plain := fmt.Errorf("raw")
	assert.Equal(t, "An internal error occurred", PublicMessage(plain),
		"plain errors should not leak their message")
}

func TestIsUnwrapsChain(t *testing.T) {
	base := io.ErrUnexpectedEOF
	err := WithCode(fmt.Errorf("reading response: %w", base), codes.Unavailable)
	assert.True(t, Is(err, base), "Is should see through the wrap")
	assert.Equal(t, codes.Unavailable, Code(err))
}

func TestStackFrames(t *testing.T) {
	err := New("boom")
	frames := err.StackFrames()
	assert.NotEmpty(t, frames, "expected at least one frame")
	assert.Contains(t, frames[0].Name, "TestStackFrames", "top frame should be the caller")

	minimal := err.MinimalStack(0, 3)
	assert.True(t, len(minimal) <= 3)
	assert.Contains(t, minimal[0], "errors_test.go")
}
