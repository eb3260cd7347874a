package cmdwire

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-cmdwire/internal"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

// ServerError is an error reply sent back by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client holds one connection. Requests are serialized, so a Client may be
// shared between goroutines.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	replies *protocol.ReplyReader
	timeout time.Duration
	inline  bool
}

func Connect(opts ...Option) (*Client, error) {
	o := &options{cfg: internal.DefaultConfig()}

	for _, opt := range opts {
		opt(o)
	}

	conn, err := net.DialTimeout("tcp", o.cfg.Addr(), o.timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:    conn,
		replies: protocol.NewReplyReader(conn),
		timeout: o.timeout,
		inline:  o.inline,
	}, nil
}

// Do sends one command and returns the raw reply. An error reply from the
// server is returned as a Reply, not as an error.
func (c *Client) Do(verb string, args ...string) (protocol.Reply, error) {
	encode := protocol.EncodeArray
	if c.inline {
		encode = protocol.EncodeInline
	}
	payload, err := encode(verb, args...)
	if err != nil {
		return protocol.Reply{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return protocol.Reply{}, err
		}
	}

	if _, err := c.conn.Write(payload); err != nil {
		return protocol.Reply{}, err
	}

	return c.replies.ReadReply()
}

// call is Do with error replies turned into *ServerError.
func (c *Client) call(verb string, args ...string) (protocol.Reply, error) {
	reply, err := c.Do(verb, args...)
	if err != nil {
		return protocol.Reply{}, err
	}
	if reply.IsError() {
		return protocol.Reply{}, &ServerError{Message: reply.Str}
	}
	return reply, nil
}

func (c *Client) Ping() error {
	_, err := c.call("PING")
	return err
}

// Get returns the stored value and whether the key was present.
func (c *Client) Get(key string) (string, bool, error) {
	reply, err := c.call("GET", key)
	if err != nil {
		return "", false, err
	}
	if reply.Kind != protocol.KindBulk {
		return "", false, unexpectedReply("GET", reply)
	}
	if reply.Null {
		return "", false, nil
	}
	return reply.Str, true, nil
}

func (c *Client) Set(key, value string) error {
	_, err := c.call("SET", key, value)
	return err
}

// Delete removes keys and returns how many existed.
func (c *Client) Delete(keys ...string) (int, error) {
	return c.integer("DEL", keys...)
}

// Exists returns how many of keys are present.
func (c *Client) Exists(keys ...string) (int, error) {
	return c.integer("EXISTS", keys...)
}

func (c *Client) Count() (int, error) {
	return c.integer("COUNT")
}

// List returns every stored key in lexical order.
func (c *Client) List() ([]string, error) {
	reply, err := c.call("LIST")
	if err != nil {
		return nil, err
	}
	if reply.Kind != protocol.KindArray {
		return nil, unexpectedReply("LIST", reply)
	}

	keys := make([]string, 0, len(reply.Elems))
	for _, el := range reply.Elems {
		keys = append(keys, el.Str)
	}
	return keys, nil
}

// Close sends QUIT, best effort, and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
	if quit, err := protocol.EncodeArray("QUIT"); err == nil {
		_, _ = c.conn.Write(quit)
	}
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *Client) integer(verb string, args ...string) (int, error) {
	reply, err := c.call(verb, args...)
	if err != nil {
		return 0, err
	}
	if reply.Kind != protocol.KindInteger {
		return 0, unexpectedReply(verb, reply)
	}
	return int(reply.Int), nil
}

func unexpectedReply(verb string, reply protocol.Reply) error {
	return fmt.Errorf("%s: %w: %s", verb, protocol.ErrUnexpectedReply, reply.String())
}
