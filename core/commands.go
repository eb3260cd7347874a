package core

import (
	"fmt"
	"strings"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

// knownVerbs lists every verb the dispatcher answers; it bounds the verb
// label in metrics.
var knownVerbs = map[string]bool{
	"PING": true, "ECHO": true, "SET": true, "GET": true,
	"DEL": true, "DELETE": true, "EXISTS": true,
	"COUNT": true, "DBSIZE": true, "LIST": true, "KEYS": true,
	"HELP": true, "QUIT": true, "COMMAND": true,
}

func metricVerb(verb string) string {
	if knownVerbs[verb] {
		return verb
	}
	return unknownVerbLabel
}

// handleCommand runs one decoded command and returns its reply. Argument
// counts are validated here, not by the decoder.
func (s *Server) handleCommand(cmd protocol.Command) protocol.Reply {
	args := cmd.Args

	switch cmd.Verb {
	case "PING":
		return s.handleCommandPing(cmd, args)
	case "ECHO":
		if len(args) != 1 {
			return wrongArity(cmd)
		}
		return protocol.BulkString(args[0])
	case "SET":
		if len(args) != 2 {
			return wrongArity(cmd)
		}
		return s.handleCommandSet(args[0], args[1])
	case "GET":
		if len(args) != 1 {
			return wrongArity(cmd)
		}
		return s.handleCommandGet(args[0])
	case "DEL", "DELETE":
		if len(args) == 0 {
			return wrongArity(cmd)
		}
		return protocol.Integer(int64(s.keyspace.Delete(args...)))
	case "EXISTS":
		if len(args) == 0 {
			return wrongArity(cmd)
		}
		return protocol.Integer(int64(s.keyspace.Exists(args...)))
	case "COUNT", "DBSIZE":
		if len(args) != 0 {
			return wrongArity(cmd)
		}
		return protocol.Integer(int64(s.keyspace.Len()))
	case "LIST", "KEYS":
		return s.handleCommandList(cmd, args)
	case "HELP":
		return protocol.BulkString(strings.TrimSpace(helpString))
	case "QUIT":
		return protocol.SimpleString(ReplyOK)
	case "COMMAND":
		// Interactive clients probe this on connect; an empty table is enough.
		return protocol.Array()
	default:
		return protocol.ErrorReply(fmt.Sprintf("ERR unknown command '%s'", cmd.Verb))
	}
}

func (s *Server) handleCommandPing(cmd protocol.Command, args []string) protocol.Reply {
	switch len(args) {
	case 0:
		return protocol.SimpleString(ReplyPong)
	case 1:
		return protocol.BulkString(args[0])
	default:
		return wrongArity(cmd)
	}
}

func (s *Server) handleCommandSet(key, value string) protocol.Reply {
	s.keyspace.Set(key, value)
	return protocol.SimpleString(ReplyOK)
}

func (s *Server) handleCommandGet(key string) protocol.Reply {
	value, ok := s.keyspace.Get(key)
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(value)
}

// LIST takes no arguments. KEYS accepts "*" so stock clients work; other
// patterns are not supported.
func (s *Server) handleCommandList(cmd protocol.Command, args []string) protocol.Reply {
	if cmd.Verb == "KEYS" {
		if len(args) != 1 {
			return wrongArity(cmd)
		}
		if args[0] != "*" {
			return protocol.ErrorReply("ERR only the '*' pattern is supported")
		}
	} else if len(args) != 0 {
		return wrongArity(cmd)
	}

	keys := s.keyspace.Keys()
	elems := make([]protocol.Reply, len(keys))
	for i, k := range keys {
		elems[i] = protocol.BulkString(k)
	}
	return protocol.Array(elems...)
}

func wrongArity(cmd protocol.Command) protocol.Reply {
	return protocol.ErrorReply(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(cmd.Verb)))
}

const helpString = `
Available Commands:

PING [message]
  Check if the server is alive.
  Response: PONG, or message

ECHO <message>
  Response: message

SET <key> <value>
  Store a value for the given key.
  Overwrites the value if the key already exists.
  Response: OK

GET <key>
  Retrieve the value associated with the key.
  Response: value | (nil)

DEL <key> [key ...]   (alias DELETE)
  Delete keys and their values.
  Response: number of keys removed

EXISTS <key> [key ...]
  Response: number of given keys that exist

COUNT   (alias DBSIZE)
  Return the total number of keys stored.

LIST   (alias KEYS *)
  List all stored keys in lexical order.

QUIT
  Close the connection.

Commands may be sent in Array Format (*<n> / $<len> framing) or as a
single inline line such as "SET foo bar".
`
