package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrUnknownType  = errors.New("unknown message type")
)

// Encode serialises an outbound message in the given encoding.
func Encode(enc Encoding, payload any) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	switch enc {
	case JSON:
		return json.Marshal(payload)
	case MsgPack:
		return msgpack.Marshal(payload)
	}
	return nil, fmt.Errorf("unsupported encoding %d", enc)
}

// DecodeCommand parses one inbound frame. Malformed frames and unknown
// types are returned as errors for the caller to drop.
func DecodeCommand(enc Encoding, b []byte) (Command, error) {
	var c Command
	if len(b) == 0 {
		return c, ErrEmptyMessage
	}

	var err error
	switch enc {
	case JSON:
		err = json.Unmarshal(b, &c)
	case MsgPack:
		err = msgpack.Unmarshal(b, &c)
	default:
		err = fmt.Errorf("unsupported encoding %d", enc)
	}
	if err != nil {
		return Command{}, fmt.Errorf("decode %s command: %w", enc, err)
	}

	switch c.Type {
	case MsgGuess, MsgToggleGameMode, MsgStartGame, MsgStopGame:
		return c, nil
	}
	return Command{}, fmt.Errorf("%w %q", ErrUnknownType, c.Type)
}
