// internal/protocol/codec_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		code Code
		args []string
	}{
		{"no args", CodeEndTurn, nil},
		{"single arg", CodeRegister, []string{"freyja_fan"}},
		{"coordinates", CodeBuyHexField, []string{"2", "3"}},
		{"entity name with comma", CodeBuildStructure, []string{"2", "3", "Huginn, and Muninn"}},
		{"backslash in arg", CodeChatGlobal, []string{`odin\allfather`, "hello"}},
		{"empty arg preserved", CodeChatPrivate, []string{"thor", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := Encode(tc.code, tc.args...)
			msg, err := Decode(line)
			require.NoError(t, err)
			assert.Equal(t, tc.code, msg.Code)
			assert.Equal(t, len(tc.args), len(msg.Args))
			for i := range tc.args {
				assert.Equal(t, tc.args[i], msg.Args[i])
			}
		})
	}
}

func TestDecodeEmptyArgumentSection(t *testing.T) {
	msg, err := Decode("ENDT:")
	require.NoError(t, err)
	assert.Equal(t, CodeEndTurn, msg.Code)
	assert.Empty(t, msg.Args)
}

func TestDecodeRequiresSeparator(t *testing.T) {
	_, err := Decode("ENDT")
	assert.ErrorIs(t, err, ErrNoSeparator)

	_, err = Decode("WXYZ")
	assert.ErrorIs(t, err, ErrNoSeparator)

	assert.Equal(t, "ENDT:", Encode(CodeEndTurn), "zero-argument encoding keeps the separator")
}

func TestDecodeUnknownCode(t *testing.T) {
	_, err := Decode("WXYZ:1,2")
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestDecodeEmptyLine(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = Decode("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)
}

func TestDecodeBadEscape(t *testing.T) {
	_, err := Decode(`CHTG:dangling\`)
	assert.ErrorIs(t, err, ErrBadEscape)

	_, err = Decode(`CHTG:bad\xescape`)
	assert.ErrorIs(t, err, ErrBadEscape)
}

func TestDecodeResponseCodes(t *testing.T) {
	for _, line := range []string{"OK:", "ERR:106$NOT_PLAYER_TURN", "PING:"} {
		msg, err := Decode(line)
		require.NoError(t, err, line)
		assert.True(t, Known(msg.Code))
	}
}

func TestCheckArgs(t *testing.T) {
	assert.True(t, CheckArgs(CodeBuyHexField, []string{"2", "3"}))
	assert.False(t, CheckArgs(CodeBuyHexField, []string{"2"}))
	assert.True(t, CheckArgs(CodeJoin, []string{"lobby1", "loki"}))
	assert.True(t, CheckArgs(CodeJoin, []string{"lobby1", "loki", "token"}))
	assert.False(t, CheckArgs(CodeJoin, []string{"lobby1"}))
	// Chat payload length is unconstrained.
	assert.True(t, CheckArgs(CodeChatGlobal, []string{"a", "b", "c", "d"}))
}

func TestServerErrorLine(t *testing.T) {
	assert.Equal(t, "ERR:106$NOT_PLAYER_TURN", ErrNotPlayerTurn.Line())
	assert.Equal(t, "ERR:103$NULL_MESSAGE_RECEIVED", ErrNullMessage.Line())
}
