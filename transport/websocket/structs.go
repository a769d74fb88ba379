package websocket

import "encoding/json"

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Address string `json:"address"`
	Wager   int64  `json:"wager"`
}

type MovePayload struct {
	Cell int `json:"cell"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
