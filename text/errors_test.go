package text

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Err(t *testing.T) {
	assert.NoError(t, Incomplete.Err())
	assert.NoError(t, Ok.Err())
	assert.NoError(t, Miss.Err())
	assert.NoError(t, Hit.Err())
	assert.NoError(t, VersionOutcome("1.2.3").Err())

	assert.ErrorIs(t, Invalid.Err(), ErrInvalidResponse)
	assert.ErrorIs(t, Unknown.Err(), ErrUnknownResponse)
}

func TestServerReplyError(t *testing.T) {
	tests := []struct {
		reply     string
		kind      ReplyKind
		message   string
		errString string
		close     bool
	}{
		{"ERROR\r\n", ReplyGeneric, "", "ERROR", true},
		{"CLIENT_ERROR bad data chunk\r\n", ReplyClient, "bad data chunk", "CLIENT_ERROR: bad data chunk", true},
		{"SERVER_ERROR out of memory\r\n", ReplyServer, "out of memory", "SERVER_ERROR: out of memory", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			out := ClassifyString(tt.reply)
			require.Equal(t, KindError, out.Kind)

			err := out.Err()
			var replyErr *ServerReplyError
			require.ErrorAs(t, err, &replyErr)

			assert.Equal(t, tt.kind, replyErr.Kind)
			assert.Equal(t, tt.message, replyErr.Message)
			assert.Equal(t, tt.reply, replyErr.Reply)
			assert.Equal(t, tt.errString, err.Error())
			assert.Equal(t, tt.close, ShouldCloseConnection(err))
		})
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{Message: "bad header"}
	assert.Equal(t, "parse error: bad header", err.Error())
	assert.NoError(t, err.Unwrap())

	wrapped := &ParseError{Message: "bad header", Err: ErrNotHit}
	assert.Equal(t, "parse error: bad header: text: not a value response", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrNotHit)
}

func TestShouldCloseConnection(t *testing.T) {
	assert.False(t, ShouldCloseConnection(nil))
	assert.True(t, ShouldCloseConnection(ErrInvalidResponse))
	assert.True(t, ShouldCloseConnection(ErrUnknownResponse))
	assert.True(t, ShouldCloseConnection(&ParseError{Message: "x"}))
	assert.True(t, ShouldCloseConnection(errors.New("some I/O error")))

	serverErr := ClassifyString("SERVER_ERROR busy\r\n").Err()
	assert.False(t, ShouldCloseConnection(fmt.Errorf("get: %w", serverErr)))
}

func TestOutcome_Predicates(t *testing.T) {
	assert.False(t, Incomplete.IsTerminal())
	for _, k := range Kinds()[1:] {
		assert.True(t, Outcome{Kind: k}.IsTerminal(), k.String())
	}

	assert.True(t, Ok.IsSuccess())
	assert.True(t, Hit.IsSuccess())
	assert.True(t, VersionOutcome("1").IsSuccess())
	assert.False(t, Miss.IsSuccess())
	assert.False(t, ErrorOutcome("ERROR\r\n").IsSuccess())

	assert.True(t, Invalid.IsViolation())
	assert.True(t, Unknown.IsViolation())
	assert.False(t, ErrorOutcome("ERROR\r\n").IsViolation())
	assert.False(t, Incomplete.IsViolation())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "incomplete", Incomplete.String())
	assert.Equal(t, `version("1.2.3")`, VersionOutcome("1.2.3").String())
	assert.Equal(t, `error("ERROR\r\n")`, ErrorOutcome("ERROR\r\n").String())
	assert.Equal(t, "kind(42)", Kind(42).String())
	assert.Len(t, Kinds(), 8)
}
