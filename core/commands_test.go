package core

import (
	"reflect"
	"testing"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

func newTestServer() *Server {
	return &Server{keyspace: NewKeyspace()}
}

func command(verb string, args ...string) protocol.Command {
	if args == nil {
		args = []string{}
	}
	return protocol.Command{Verb: verb, Args: args}
}

func TestHandleCommand(t *testing.T) {
	s := newTestServer()
	s.keyspace.Set("a", "1")
	s.keyspace.Set("b", "2")

	tests := []struct {
		name string
		cmd  protocol.Command
		want protocol.Reply
	}{
		{"ping", command("PING"), protocol.SimpleString("PONG")},
		{"ping message", command("PING", "hi"), protocol.BulkString("hi")},
		{"echo", command("ECHO", "new york"), protocol.BulkString("new york")},
		{"get hit", command("GET", "a"), protocol.BulkString("1")},
		{"get miss", command("GET", "zzz"), protocol.NullBulk()},
		{"exists", command("EXISTS", "a", "b", "c"), protocol.Integer(2)},
		{"count", command("COUNT"), protocol.Integer(2)},
		{"dbsize", command("DBSIZE"), protocol.Integer(2)},
		{"list", command("LIST"), protocol.Array(protocol.BulkString("a"), protocol.BulkString("b"))},
		{"keys star", command("KEYS", "*"), protocol.Array(protocol.BulkString("a"), protocol.BulkString("b"))},
		{"keys pattern", command("KEYS", "a*"), protocol.ErrorReply("ERR only the '*' pattern is supported")},
		{"quit", command("QUIT"), protocol.SimpleString("OK")},
		{"command", command("COMMAND"), protocol.Array()},
		{"unknown", command("FLUSHALL"), protocol.ErrorReply("ERR unknown command 'FLUSHALL'")},
		{"get arity", command("GET"), protocol.ErrorReply("ERR wrong number of arguments for 'get' command")},
		{"set arity", command("SET", "k"), protocol.ErrorReply("ERR wrong number of arguments for 'set' command")},
		{"del arity", command("DEL"), protocol.ErrorReply("ERR wrong number of arguments for 'del' command")},
		{"ping arity", command("PING", "a", "b"), protocol.ErrorReply("ERR wrong number of arguments for 'ping' command")},
		{"count arity", command("COUNT", "x"), protocol.ErrorReply("ERR wrong number of arguments for 'count' command")},
		{"list arity", command("LIST", "x"), protocol.ErrorReply("ERR wrong number of arguments for 'list' command")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.handleCommand(tt.cmd); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("handleCommand(%v) = %#v, want %#v", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestHandleCommand_Mutations(t *testing.T) {
	s := newTestServer()

	if got := s.handleCommand(command("SET", "k", "")); !reflect.DeepEqual(got, protocol.SimpleString("OK")) {
		t.Fatalf("SET reply = %#v", got)
	}
	if got := s.handleCommand(command("GET", "k")); !reflect.DeepEqual(got, protocol.BulkString("")) {
		t.Fatalf("GET of empty value = %#v", got)
	}
	if got := s.handleCommand(command("DELETE", "k", "k")); !reflect.DeepEqual(got, protocol.Integer(1)) {
		t.Fatalf("DELETE reply = %#v", got)
	}
	if s.keyspace.Len() != 0 {
		t.Fatalf("keyspace not empty after delete")
	}
}

func TestHandleCommand_Help(t *testing.T) {
	s := newTestServer()

	got := s.handleCommand(command("HELP"))
	if got.Kind != protocol.KindBulk || got.Str == "" {
		t.Fatalf("unexpected HELP reply: %#v", got)
	}
}

func TestMetricVerb(t *testing.T) {
	if got := metricVerb("GET"); got != "GET" {
		t.Errorf("metricVerb(GET) = %q", got)
	}
	if got := metricVerb("X-RANDOM"); got != unknownVerbLabel {
		t.Errorf("metricVerb(X-RANDOM) = %q", got)
	}
}
