package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inner-message type discriminators carried in the "type" field.
const (
	MsgTransaction = "Transaction"
	MsgBlock       = "Block"
)

// ErrInvalidMessage is returned for malformed JSON or an unknown type tag.
var ErrInvalidMessage = errors.New("types: invalid message")

type txMessage struct {
	Type string `json:"type"`
	*Transaction
}

type blockMessage struct {
	Type string `json:"type"`
	*Block
}

// DecodeMessage parses a tagged inner message into a *Transaction or *Block.
func DecodeMessage(data []byte) (interface{}, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch probe.Type {
	case MsgTransaction:
		tx := new(Transaction)
		if err := json.Unmarshal(data, tx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return tx, nil
	case MsgBlock:
		b := new(Block)
		if err := json.Unmarshal(data, b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, probe.Type)
	}
}

// EncodeMessage serializes a *Transaction or *Block with its type tag.
func EncodeMessage(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *Transaction:
		return json.Marshal(txMessage{Type: MsgTransaction, Transaction: m})
	case *Block:
		return json.Marshal(blockMessage{Type: MsgBlock, Block: m})
	default:
		return nil, fmt.Errorf("%w: unsupported payload %T", ErrInvalidMessage, v)
	}
}
