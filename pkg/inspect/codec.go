package inspect

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Wire formats.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// codec encodes values for HTTP responses and WebSocket frames.
type codec struct {
	name        string
	contentType string
	frameType   int
	marshal     func(v any) ([]byte, error)
}

var (
	jsonCodec = codec{
		name:        FormatJSON,
		contentType: "application/json",
		frameType:   websocket.TextMessage,
		marshal:     json.Marshal,
	}
	msgpackCodec = codec{
		name:        FormatMsgpack,
		contentType: "application/msgpack",
		frameType:   websocket.BinaryMessage,
		marshal:     msgpack.Marshal,
	}
)

// codecFor returns the codec for a ?format= value. Unknown values fall
// back to JSON.
func codecFor(format string) codec {
	if format == FormatMsgpack {
		return msgpackCodec
	}
	return jsonCodec
}
