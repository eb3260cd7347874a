// Package protocol decodes client commands and encodes server replies.
//
// Clients may send a command in either of two encodings over the same
// connection: Array Format (binary safe, length prefixed) or Inline Format
// (a single line of space separated tokens). Decode normalizes both into a
// Command. The caller is responsible for handing Decode exactly one complete
// frame.
package protocol

import (
	"bytes"
	"strconv"
	"strings"
)

// crlf terminates every segment of both wire encodings.
var crlf = []byte("\r\n")

// Format identifies which of the two supported wire encodings a frame uses.
type Format int

const (
	FormatUnknown Format = iota // Neither encoding applies
	FormatArray                 // *<N>\r\n followed by $<len>\r\n<content>\r\n groups
	FormatInline                // Space separated tokens terminated by \r\n
)

func (f Format) String() string {
	switch f {
	case FormatArray:
		return "array"
	case FormatInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Command represents a decoded client command.
//
// Verb is always upper-cased and never empty. Args holds the remaining
// tokens in the order the client sent them and is never nil, though it may
// be empty. A Command shares no memory with the frame it was decoded from.
type Command struct {
	Verb string
	Args []string
}

// Decoder turns one complete frame into a Command.
//
// A Decoder holds no per-call state and is safe for concurrent use.
type Decoder struct {
	strictBulkLength bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithStrictBulkLength makes the Decoder compare every bulk string's declared
// $<len> prefix against the size of its content and reject the frame with a
// *BulkLengthError on mismatch. Without it the prefix is read but ignored.
func WithStrictBulkLength() DecoderOption {
	return func(d *Decoder) {
		d.strictBulkLength = true
	}
}

// NewDecoder returns a Decoder. With no options it is lenient about bulk
// string length prefixes.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes frame with the default, lenient Decoder.
func Decode(frame []byte) (Command, bool, error) {
	return defaultDecoder.Decode(frame)
}

// Decode inspects frame, picks the wire encoding it uses and tokenizes it.
//
// The outcome follows the comma-ok idiom:
//
//	cmd, true, nil          a command was decoded
//	Command{}, false, nil   no command (unrecognised or empty frame)
//	Command{}, false, err   the frame is structurally invalid
//
// err is a *MalformedCountError when an Array Format frame declares a
// non-integer element count, or a *BulkLengthError in strict mode. Every
// other unparseable shape is reported as "no command".
//
// frame is only read, never retained or modified.
func (d *Decoder) Decode(frame []byte) (Command, bool, error) {
	segments := splitFrame(frame)

	switch detectFormat(frame, segments[0]) {
	case FormatArray:
		return d.decodeArray(segments)
	case FormatInline:
		return decodeInline(frame)
	default:
		return Command{}, false, nil
	}
}

// DetectFormat reports which encoding Decode would use for frame.
func DetectFormat(frame []byte) Format {
	first, _, _ := bytes.Cut(frame, crlf)
	return detectFormat(frame, first)
}

// splitFrame cuts frame on every CRLF. A CRLF-terminated frame yields a
// trailing empty segment. The result always has at least one segment.
func splitFrame(frame []byte) [][]byte {
	return bytes.Split(frame, crlf)
}

// detectFormat picks the encoding from the first CRLF-delimited segment and,
// failing that, from how the whole frame ends.
func detectFormat(frame, first []byte) Format {
	if len(first) > 0 && first[0] == '*' {
		return FormatArray
	}
	if bytes.HasSuffix(frame, crlf) {
		return FormatInline
	}
	return FormatUnknown
}

// decodeArray handles Array Format. segments[0] is the *<N> header.
func (d *Decoder) decodeArray(segments [][]byte) (Command, bool, error) {
	count, err := parseCount(segments[0][1:])
	if err != nil {
		return Command{}, false, err
	}

	elements, err := d.collectBulkStrings(segments[1:], count)
	if err != nil {
		return Command{}, false, err
	}
	if len(elements) == 0 || elements[0] == "" {
		return Command{}, false, nil
	}

	return newCommand(elements[0], elements[1:]), true, nil
}

// collectBulkStrings scans segments for up to count bulk strings.
//
// A segment starting with '$' is a bulk header and the segment after it is
// taken verbatim as the content. Any other segment is skipped without being
// collected, so stray lines never abort the scan. Scanning stops once count
// elements are collected or the segments run out; a header with no segment
// after it ends the scan.
func (d *Decoder) collectBulkStrings(segments [][]byte, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	// A frame cannot hold more bulk strings than half its segments, so a
	// huge declared count never turns into a huge allocation.
	elements := make([]string, 0, min(count, len(segments)/2+1))

	for i := 0; len(elements) < count && i < len(segments); {
		if !isBulkHeader(segments[i]) {
			i++
			continue
		}
		if i+1 >= len(segments) {
			break
		}

		header, content := segments[i], segments[i+1]
		if d.strictBulkLength {
			if err := checkBulkLength(header, content); err != nil {
				return nil, err
			}
		}

		elements = append(elements, string(content))
		i += 2
	}

	return elements, nil
}

func isBulkHeader(segment []byte) bool {
	return len(segment) > 0 && segment[0] == '$'
}

// parseCount accepts the count with surrounding whitespace, so "* 2" and
// "*2 " both declare two elements.
func parseCount(raw []byte) (int, error) {
	count, err := strconv.Atoi(string(bytes.TrimSpace(raw)))
	if err != nil {
		return 0, &MalformedCountError{Raw: string(raw), Err: err}
	}
	return count, nil
}

func checkBulkLength(header, content []byte) error {
	declared, err := strconv.Atoi(string(bytes.TrimSpace(header[1:])))
	if err != nil || declared != len(content) {
		return &BulkLengthError{Declared: string(header[1:]), Actual: len(content)}
	}
	return nil
}

// decodeInline handles Inline Format: the whole frame is one line of tokens
// separated by single spaces.
func decodeInline(frame []byte) (Command, bool, error) {
	tokens := splitInline(strings.TrimSpace(string(frame)))
	if tokens[0] == "" {
		return Command{}, false, nil
	}
	return newCommand(tokens[0], tokens[1:]), true, nil
}

// splitInline splits on every single space, so consecutive spaces produce
// empty tokens: "a  b" becomes ["a", "", "b"].
func splitInline(line string) []string {
	return strings.Split(line, " ")
}

func newCommand(verb string, args []string) Command {
	cmd := Command{
		Verb: strings.ToUpper(verb),
		Args: make([]string, len(args)),
	}
	copy(cmd.Args, args)
	return cmd
}
