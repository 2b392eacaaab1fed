package handler

import (
	"bytes"

	"poassistant/internal/util/jsonutil"
)

// jsonCodec lets connect carry the plain Go request and response structs of
// AssistantService as JSON. An empty body decodes to the zero message.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return jsonutil.MarshalNoEscape(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return jsonutil.UnmarshalFlex(data, msg)
}
