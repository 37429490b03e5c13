package restclient

import "encoding/json"

// BrokerMessage is one entry of the envelope's "messages" array on error.
type BrokerMessage struct {
	MessageCode string `json:"message_code"`
	Message     string `json:"message_string"`
}

// envelope is the wire shape every GMO Coin FX response uses (§4.3):
// {status, data, messages?, responsetime}. status != 0 means error, in
// which case messages carries the broker's reason and data is absent.
type envelope struct {
	Status       int             `json:"status"`
	Data         json.RawMessage `json:"data"`
	Messages     []BrokerMessage `json:"messages,omitempty"`
	ResponseTime string          `json:"responsetime"`
}
