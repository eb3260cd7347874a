package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/tidwall/resp"
)

// ReplyKind is the type byte that introduces a reply on the wire.
type ReplyKind byte

const (
	KindSimple  ReplyKind = '+'
	KindError   ReplyKind = '-'
	KindInteger ReplyKind = ':'
	KindBulk    ReplyKind = '$'
	KindArray   ReplyKind = '*'
)

// Reply is a server response in RESP2 form.
//
// Str carries the payload of simple, error and bulk replies, Int the value
// of integer replies and Elems the members of array replies. Null marks the
// null bulk string ($-1) and the null array (*-1).
type Reply struct {
	Kind  ReplyKind
	Str   string
	Int   int64
	Elems []Reply
	Null  bool
}

func SimpleString(s string) Reply { return Reply{Kind: KindSimple, Str: s} }
func ErrorReply(msg string) Reply { return Reply{Kind: KindError, Str: msg} }
func Integer(n int64) Reply       { return Reply{Kind: KindInteger, Int: n} }
func BulkString(s string) Reply   { return Reply{Kind: KindBulk, Str: s} }
func NullBulk() Reply             { return Reply{Kind: KindBulk, Null: true} }
func Array(elems ...Reply) Reply  { return Reply{Kind: KindArray, Elems: elems} }

// IsError reports whether r is an error reply.
func (r Reply) IsError() bool {
	return r.Kind == KindError
}

// String renders r the way an interactive client prints it.
func (r Reply) String() string {
	switch r.Kind {
	case KindSimple:
		return r.Str
	case KindError:
		return "(error) " + r.Str
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindBulk:
		if r.Null {
			return "(nil)"
		}
		return strconv.Quote(r.Str)
	case KindArray:
		if r.Null {
			return "(nil)"
		}
		if len(r.Elems) == 0 {
			return "(empty array)"
		}
		lines := make([]string, len(r.Elems))
		for i, e := range r.Elems {
			lines[i] = fmt.Sprintf("%d) %s", i+1, e.String())
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("(unknown reply %q)", byte(r.Kind))
	}
}

// AppendReply appends the wire form of r to dst. Line breaks inside simple
// and error replies are replaced by spaces.
func AppendReply(dst []byte, r Reply) []byte {
	b, err := toValue(r).MarshalRESP()
	if err != nil {
		// Only reachable for a Kind outside the constants above.
		return dst
	}
	return append(dst, b...)
}

// WriteReply writes the wire form of r to w in a single Write call.
func WriteReply(w io.Writer, r Reply) error {
	_, err := w.Write(AppendReply(nil, r))
	return err
}

// ReplyReader reads consecutive replies from one stream.
type ReplyReader struct {
	rd *resp.Reader
}

func NewReplyReader(r io.Reader) *ReplyReader {
	return &ReplyReader{rd: resp.NewReader(r)}
}

// ReadReply reads exactly one reply.
//
// ReadReply blocks until the full reply has been read or an error occurs.
// Error replies are returned as a Reply of KindError, not as a Go error;
// the error return is reserved for transport failures and malformed input,
// the latter matching ErrUnexpectedReply.
func (rr *ReplyReader) ReadReply() (Reply, error) {
	v, _, err := rr.rd.ReadValue()
	if err != nil {
		return Reply{}, replyError(err)
	}
	return fromValue(v)
}

// ReadReply reads one reply from r. r must be at least 4096 bytes so it is
// used directly, without a second buffer reading ahead of it.
func ReadReply(r *bufio.Reader) (Reply, error) {
	return NewReplyReader(r).ReadReply()
}

func toValue(r Reply) resp.Value {
	switch r.Kind {
	case KindSimple:
		return resp.SimpleStringValue(oneLine(r.Str))
	case KindError:
		return resp.ErrorValue(errors.New(oneLine(r.Str)))
	case KindInteger:
		return resp.IntegerValue(int(r.Int))
	case KindBulk:
		if r.Null {
			return resp.NullValue()
		}
		return resp.StringValue(r.Str)
	case KindArray:
		if r.Null {
			return resp.NullValue()
		}
		vals := make([]resp.Value, len(r.Elems))
		for i, e := range r.Elems {
			vals[i] = toValue(e)
		}
		return resp.ArrayValue(vals)
	default:
		return resp.Value{}
	}
}

func fromValue(v resp.Value) (Reply, error) {
	switch ReplyKind(v.Type()) {
	case KindSimple:
		return SimpleString(v.String()), nil
	case KindError:
		return ErrorReply(v.String()), nil
	case KindInteger:
		return Integer(int64(v.Integer())), nil
	case KindBulk:
		if v.IsNull() {
			return NullBulk(), nil
		}
		return BulkString(v.String()), nil
	case KindArray:
		if v.IsNull() {
			return Reply{Kind: KindArray, Null: true}, nil
		}
		var elems []Reply
		for _, child := range v.Array() {
			e, err := fromValue(child)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, e)
		}
		return Array(elems...), nil
	default:
		return Reply{}, fmt.Errorf("%w: type %s", ErrUnexpectedReply, v.Type())
	}
}

// replyError keeps transport errors as they are and tags everything else,
// which the resp reader only returns for protocol violations.
func replyError(err error) error {
	var netErr net.Error
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &netErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnexpectedReply, err)
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
