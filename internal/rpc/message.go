package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/soundbus/audio-relay/internal/errors"
)

const jsonRPCVersion = "2.0"

type messageKind int

const (
	kindUnknown messageKind = iota
	kindRequest
	kindNotification
	kindResponse
)

// Request is the handler-facing view of an inbound call or notification.
type Request struct {
	ID     *ID              `json:"id"`
	Method string           `json:"method"`
	Params *json.RawMessage `json:"params,omitempty"`
}

// message is the raw wire envelope covering requests, notifications and
// responses; classify() decides which one it is.
type message struct {
	JSONRPC string           `json:"jsonrpc,omitempty"`
	ID      *ID              `json:"id,omitempty"`
	Method  *string          `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`

	kind messageKind `json:"-"`
}

func (m *message) classify() {
	switch {
	case m.Method != nil:
		if m.Result != nil || m.Error != nil {
			m.kind = kindUnknown
		} else if m.ID.IsSet() {
			m.kind = kindRequest
		} else {
			m.kind = kindNotification
		}
	case m.Result != nil || m.Error != nil:
		if m.ID.IsSet() {
			m.kind = kindResponse
		} else {
			m.kind = kindUnknown
		}
	default:
		m.kind = kindUnknown
	}
}

func marshalParams(params any) (*json.RawMessage, error) {
	bs, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(ErrCodeParse, err, "failed to marshal params")
	}
	raw := json.RawMessage(bs)
	return &raw, nil
}

func newRequestMessage(method string, params any) (*message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &message{
		JSONRPC: jsonRPCVersion,
		ID:      newStringID(uuid.New().String()),
		Method:  &method,
		Params:  raw,
		kind:    kindRequest,
	}, nil
}

func newNotificationMessage(method string, params any) (*message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &message{
		JSONRPC: jsonRPCVersion,
		Method:  &method,
		Params:  raw,
		kind:    kindNotification,
	}, nil
}

func newResponseMessage(id ID, result any, respErr *Error) (*message, error) {
	var resultRaw *json.RawMessage
	if respErr == nil {
		bs, err := json.Marshal(result)
		if err != nil {
			return nil, errors.Wrap(ErrCodeParse, err, "failed to marshal result")
		}
		raw := json.RawMessage(bs)
		resultRaw = &raw
	}
	return &message{
		JSONRPC: jsonRPCVersion,
		ID:      &id,
		Result:  resultRaw,
		Error:   respErr,
		kind:    kindResponse,
	}, nil
}

// ID is a JSON-RPC 2.0 request ID, string or integer on the wire.
type ID struct {
	Num      uint64
	Str      string
	isString bool
}

func newStringID(id string) *ID {
	return &ID{Str: id, isString: true}
}

func (id *ID) IsSet() bool {
	return id != nil && (id.isString || id.Num != 0)
}

func (id *ID) String() string {
	if id.isString {
		return strconv.Quote(id.Str)
	}
	return strconv.FormatUint(id.Num, 10)
}

func (id *ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.Str)
	}
	return json.Marshal(id.Num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID{Str: s, isString: true}
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID{Num: n}
	return nil
}

// Error is a JSON-RPC response error object.
type Error struct {
	Code    int64            `json:"code"`
	Message string           `json:"message"`
	Data    *json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error: code %v, message: %s", e.Code, e.Message)
}

// http://www.jsonrpc.org/specification#error_object
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)
