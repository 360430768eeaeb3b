package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/curbz/planeguess/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Options select what the server sends back on the connection.
type Options struct {
	Encoding protocol.Encoding
	Acks     bool
}

// Message is one decoded frame. Exactly one field is set.
type Message struct {
	Snapshot *protocol.Snapshot
	Result   *protocol.GuessResult
	Error    *protocol.Error
}

// Client is a viewer connection to a planeguess server.
type Client struct {
	conn *websocket.Conn
	enc  protocol.Encoding
	wmu  sync.Mutex
}

type ClientInterface interface {
	Read() (Message, error)
	ReadSnapshot() (protocol.Snapshot, error)
	Guess(player, planeID, airport string) error
	Toggle() error
	Start() error
	Stop() error
	Close() error
}

// Dial connects to the websocket endpoint at rawURL, e.g. ws://localhost:8000/ws.
func Dial(ctx context.Context, rawURL string, opts Options) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	if opts.Encoding != protocol.JSON {
		q.Set("encoding", opts.Encoding.String())
	}
	if opts.Acks {
		q.Set("acks", "true")
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	return &Client{conn: conn, enc: opts.Encoding}, nil
}

// Read blocks for the next frame from the server.
func (c *Client) Read() (Message, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	return c.processMessage(data)
}

// ReadSnapshot skips acknowledgements until the next snapshot arrives.
func (c *Client) ReadSnapshot() (protocol.Snapshot, error) {
	for {
		msg, err := c.Read()
		if err != nil {
			return protocol.Snapshot{}, err
		}
		if msg.Snapshot != nil {
			return *msg.Snapshot, nil
		}
	}
}

func (c *Client) processMessage(data []byte) (Message, error) {
	var probe struct {
		Type string `json:"type" msgpack:"type"`
	}
	if err := c.unmarshal(data, &probe); err != nil {
		return Message{}, fmt.Errorf("invalid frame: %w", err)
	}

	switch probe.Type {
	case "":
		var snap protocol.Snapshot
		if err := c.unmarshal(data, &snap); err != nil {
			return Message{}, err
		}
		return Message{Snapshot: &snap}, nil
	case protocol.MsgGuessResult:
		var res protocol.GuessResult
		if err := c.unmarshal(data, &res); err != nil {
			return Message{}, err
		}
		return Message{Result: &res}, nil
	case protocol.MsgError:
		var e protocol.Error
		if err := c.unmarshal(data, &e); err != nil {
			return Message{}, err
		}
		return Message{Error: &e}, nil
	}
	return Message{}, fmt.Errorf("unknown frame type %q", probe.Type)
}

func (c *Client) unmarshal(data []byte, v any) error {
	if c.enc == protocol.MsgPack {
		return msgpack.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func (c *Client) send(cmd protocol.Command) error {
	b, err := protocol.Encode(c.enc, cmd)
	if err != nil {
		return err
	}
	mt := websocket.TextMessage
	if c.enc == protocol.MsgPack {
		mt = websocket.BinaryMessage
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(mt, b)
}

func (c *Client) Guess(player, planeID, airport string) error {
	return c.send(protocol.Command{Type: protocol.MsgGuess, Player: player, PlaneID: planeID, Airport: airport})
}

func (c *Client) Toggle() error {
	return c.send(protocol.Command{Type: protocol.MsgToggleGameMode})
}

func (c *Client) Start() error {
	return c.send(protocol.Command{Type: protocol.MsgStartGame})
}

func (c *Client) Stop() error {
	return c.send(protocol.Command{Type: protocol.MsgStopGame})
}

// Close sends a normal closure and closes the connection.
func (c *Client) Close() error {
	c.wmu.Lock()
	werr := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return errors.Join(werr, c.conn.Close())
}
