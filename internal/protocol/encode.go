package protocol

import (
	"fmt"
	"strings"

	"github.com/tidwall/resp"
)

// EncodeArray serializes a command into Array Format:
//
//	*<N>\r\n$<len>\r\n<verb>\r\n$<len>\r\n<arg>\r\n...
//
// where N is 1 + len(args). Tokens may hold spaces and lone CR or LF bytes,
// but not the CRLF pair: Decode splits on CRLF before it looks at lengths,
// so such a token would arrive cut short. Those tokens, and an empty verb,
// are rejected with ErrUnencodableToken.
func EncodeArray(verb string, args ...string) ([]byte, error) {
	if verb == "" {
		return nil, fmt.Errorf("%w: empty verb", ErrUnencodableToken)
	}

	vals := make([]interface{}, len(args))
	for i, arg := range args {
		if strings.Contains(arg, "\r\n") {
			return nil, fmt.Errorf("%w: token %d %q", ErrUnencodableToken, i+1, arg)
		}
		vals[i] = arg
	}
	if strings.Contains(verb, "\r\n") {
		return nil, fmt.Errorf("%w: token 0 %q", ErrUnencodableToken, verb)
	}

	return resp.MultiBulkValue(verb, vals...).MarshalRESP()
}

// EncodeInline serializes a command into Inline Format: tokens joined by a
// single space and terminated by CRLF.
//
// Tokens that are empty or contain a space, CR or LF would not survive the
// trip through the inline tokenizer; they are rejected with
// ErrUnencodableToken. Use EncodeArray for those.
func EncodeInline(verb string, args ...string) ([]byte, error) {
	tokens := append([]string{verb}, args...)

	for i, token := range tokens {
		if token == "" || strings.ContainsAny(token, " \r\n") {
			return nil, fmt.Errorf("%w: token %d %q", ErrUnencodableToken, i, token)
		}
	}

	line := strings.Join(tokens, " ")
	return append([]byte(line), crlf...), nil
}
