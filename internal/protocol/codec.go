// internal/protocol/codec.go
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Message is one decoded wire line: `CODE:a1,a2,...`.
type Message struct {
	Code Code
	Args []string
}

var (
	// ErrUnknownCode indicates an unrecognized command code.
	ErrUnknownCode = errors.New("protocol: unrecognized command")
	// ErrBadEscape indicates a malformed escape sequence in an argument.
	ErrBadEscape = errors.New("protocol: malformed argument escape")
	// ErrEmptyLine indicates a nil or blank input line.
	ErrEmptyLine = errors.New("protocol: empty message")
	// ErrNoSeparator indicates a line missing the code separator.
	ErrNoSeparator = errors.New("protocol: missing code separator")
)

// Encode renders a message as a single wire line. Arguments containing the
// field separator or a backslash are escaped; Decode is the exact inverse.
func Encode(code Code, args ...string) string {
	escaped := make([]string, len(args))
	for i, a := range args {
		escaped[i] = escapeArg(a)
	}
	return string(code) + ":" + strings.Join(escaped, ",")
}

// Decode parses a raw wire line into a Message. Every line carries the `:`
// separator; `CODE:` with an empty argument section is the zero-argument
// form. Decode fails for lines missing the separator, unrecognized codes
// and malformed argument escapes.
func Decode(line string) (Message, error) {
	if strings.TrimSpace(line) == "" {
		return Message{}, ErrEmptyLine
	}
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return Message{}, fmt.Errorf("%w: %q", ErrNoSeparator, line)
	}
	code := Code(line[:idx])
	if !Known(code) {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownCode, string(code))
	}
	args, err := splitArgs(line[idx+1:])
	if err != nil {
		return Message{}, err
	}
	return Message{Code: code, Args: args}, nil
}

func escapeArg(a string) string {
	a = strings.ReplaceAll(a, `\`, `\\`)
	return strings.ReplaceAll(a, ",", `\,`)
}

// splitArgs splits the argument section on unescaped commas and unescapes
// each field. An empty section is a legal empty argument list.
func splitArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var args []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return nil, ErrBadEscape
			}
			switch s[i+1] {
			case '\\', ',':
				cur.WriteByte(s[i+1])
				i++
			default:
				return nil, fmt.Errorf("%w: \\%c", ErrBadEscape, s[i+1])
			}
		case ',':
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	args = append(args, cur.String())
	return args, nil
}
