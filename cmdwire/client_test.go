package cmdwire_test

import (
	"bufio"
	"errors"
	"net"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/0xRadioAc7iv/go-cmdwire/cmdwire"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/server"
)

// startTestServer answers with canned replies and records the format of
// every frame it receives.
func startTestServer(t *testing.T) (addr string, formats <-chan protocol.Format, shutdown func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}

	seen := make(chan protocol.Format, 64)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		for {
			frame, err := server.ReadFrame(reader, 1024*1024)
			if err != nil {
				return
			}
			seen <- protocol.DetectFormat(frame)

			cmd, ok, err := protocol.Decode(frame)
			if err != nil || !ok {
				_ = protocol.WriteReply(conn, protocol.ErrorReply("ERR protocol error"))
				continue
			}

			var resp protocol.Reply

			switch cmd.Verb {
			case "PING":
				resp = protocol.SimpleString("PONG")
			case "SET":
				if cmd.Args[0] == "locked" {
					resp = protocol.ErrorReply("ERR key is locked")
				} else {
					resp = protocol.SimpleString("OK")
				}
			case "GET":
				if cmd.Args[0] == "missing" {
					resp = protocol.NullBulk()
				} else {
					resp = protocol.BulkString("value:" + cmd.Args[0])
				}
			case "DEL", "EXISTS":
				resp = protocol.Integer(int64(len(cmd.Args)))
			case "COUNT":
				resp = protocol.Integer(42)
			case "LIST":
				resp = protocol.Array(protocol.BulkString("a"), protocol.BulkString("b"), protocol.BulkString("c"))
			case "QUIT":
				_ = protocol.WriteReply(conn, protocol.SimpleString("OK"))
				return
			default:
				resp = protocol.ErrorReply("ERR unknown command '" + cmd.Verb + "'")
			}

			_ = protocol.WriteReply(conn, resp)
		}
	}()

	return ln.Addr().String(), seen, func() {
		_ = ln.Close()
	}
}

func TestConnect(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	if err := client.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestConnect_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = cmdwire.Connect(
		cmdwire.WithHost("127.0.0.1"),
		cmdwire.WithPort(port),
		cmdwire.WithTimeout(time.Second),
	)
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestClientSet(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	if err := client.Set("foo", "bar"); err != nil {
		t.Fatal(err)
	}
}

func TestClientGet(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	val, ok, err := client.Get("hello")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || val != "value:hello" {
		t.Fatalf("unexpected response: %q %v", val, ok)
	}

	val, ok, err = client.Get("missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok || val != "" {
		t.Fatalf("expected missing key, got %q %v", val, ok)
	}
}

func TestClientDeleteExists(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	n, err := client.Delete("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("Delete = %d, want 2", n)
	}

	n, err = client.Exists("a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Exists = %d, want 1", n)
	}
}

func TestClientCount(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	n, err := client.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Fatalf("unexpected response: %d", n)
	}
}

func TestClientList(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	keys, err := client.List()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}
}

func TestClientDo_ErrorReply(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	reply, err := client.Do("FLUSHALL")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.IsError() || reply.Str != "ERR unknown command 'FLUSHALL'" {
		t.Fatalf("unexpected reply: %#v", reply)
	}
}

func TestClient_ServerError(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	err := client.Set("locked", "x")

	var srvErr *cmdwire.ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("Set error = %v, want *ServerError", err)
	}
	if srvErr.Message != "ERR key is locked" {
		t.Errorf("Message mismatch: got %q", srvErr.Message)
	}
}

func TestClientInline(t *testing.T) {
	addr, formats, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr, cmdwire.WithInline())
	defer client.Close()

	if err := client.Set("foo", "bar"); err != nil {
		t.Fatal(err)
	}
	if got := <-formats; got != protocol.FormatInline {
		t.Fatalf("frame format = %v, want inline", got)
	}

	if err := client.Set("city", "new york"); !errors.Is(err, protocol.ErrUnencodableToken) {
		t.Fatalf("Set with space in inline mode: err = %v, want ErrUnencodableToken", err)
	}
}

func TestClientArrayByDefault(t *testing.T) {
	addr, formats, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	if err := client.Set("city", "new york"); err != nil {
		t.Fatal(err)
	}
	if got := <-formats; got != protocol.FormatArray {
		t.Fatalf("frame format = %v, want array", got)
	}

	if err := client.Set("k", "a\r\nb"); !errors.Is(err, protocol.ErrUnencodableToken) {
		t.Fatalf("Set with CRLF in value: err = %v, want ErrUnencodableToken", err)
	}
	if err := client.Ping(); err != nil {
		t.Fatalf("connection unusable after rejected command: %v", err)
	}
}

func TestClientMultipleCommands(t *testing.T) {
	addr, _, shutdown := startTestServer(t)
	defer shutdown()

	client := mustConnect(t, addr)
	defer client.Close()

	if err := client.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := client.Set("b", "2"); err != nil {
		t.Fatal(err)
	}

	n, err := client.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Fatalf("unexpected response: %d", n)
	}
}

func mustConnect(t *testing.T, addr string, extra ...cmdwire.Option) *cmdwire.Client {
	t.Helper()

	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	opts := append([]cmdwire.Option{
		cmdwire.WithHost(host),
		cmdwire.WithPort(port),
		cmdwire.WithTimeout(2 * time.Second),
	}, extra...)

	client, err := cmdwire.Connect(opts...)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	return client
}
