// Command cmdwire-decode decodes one frame read from stdin and prints the
// result as JSON.
//
// By default the input is treated as text with escapes: \r, \n, \t, \\ and
// \xHH are interpreted and literal line breaks are dropped, so
//
//	echo '*1\r\n$4\r\nPING\r\n' | cmdwire-decode
//
// works from a shell. Use -raw to decode stdin byte for byte.
//
// Exit status is 0 for a command, 1 when the frame carries no command and 2
// when the frame is malformed.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

const (
	exitCommand   = 0
	exitNoCommand = 1
	exitMalformed = 2
	exitUsage     = 3
)

type result struct {
	Format string   `json:"format"`
	Ok     bool     `json:"ok"`
	Verb   string   `json:"verb,omitempty"`
	Args   []string `json:"args,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cmdwire-decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	raw := fs.Bool("raw", false, "Decode stdin as-is without interpreting escapes")
	strict := fs.Bool("strict", false, "Reject bulk strings whose declared length does not match")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	input, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "read stdin:", err)
		return exitUsage
	}

	frame := input
	if !*raw {
		frame, err = unescape(input)
		if err != nil {
			fmt.Fprintln(stderr, "bad escape:", err)
			return exitUsage
		}
	}

	var opts []protocol.DecoderOption
	if *strict {
		opts = append(opts, protocol.WithStrictBulkLength())
	}

	res, code := decode(protocol.NewDecoder(opts...), frame)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintln(stderr, "write:", err)
		return exitUsage
	}
	return code
}

func decode(d *protocol.Decoder, frame []byte) (result, int) {
	res := result{Format: protocol.DetectFormat(frame).String()}

	cmd, ok, err := d.Decode(frame)
	switch {
	case err != nil:
		res.Error = err.Error()
		return res, exitMalformed
	case !ok:
		return res, exitNoCommand
	}

	res.Ok = true
	res.Verb = cmd.Verb
	res.Args = cmd.Args
	return res, exitCommand
}

var errBadEscape = errors.New("invalid escape sequence")

// unescape interprets backslash escapes and drops literal CR and LF.
func unescape(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))

	for i := 0; i < len(in); i++ {
		c := in[i]
		if c == '\r' || c == '\n' {
			continue
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}

		i++
		if i >= len(in) {
			return nil, fmt.Errorf("%w: trailing backslash", errBadEscape)
		}

		switch in[i] {
		case 'r':
			out = append(out, '\r')
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		case 'x':
			if i+2 >= len(in) {
				return nil, fmt.Errorf("%w: short \\x", errBadEscape)
			}
			var b [1]byte
			if _, err := hex.Decode(b[:], in[i+1:i+3]); err != nil {
				return nil, fmt.Errorf("%w: \\x%s", errBadEscape, in[i+1:i+3])
			}
			out = append(out, b[0])
			i += 2
		default:
			return nil, fmt.Errorf("%w: \\%c", errBadEscape, in[i])
		}
	}

	return out, nil
}
