// Package wamp implements the router session client: a WAMP v2 caller
// speaking JSON over a websocket with cryptosign authentication.
package wamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Subprotocol is the websocket subprotocol negotiated with the router.
const Subprotocol = "wamp.2.json"

// Message type codes.
const (
	msgHello        = 1
	msgWelcome      = 2
	msgAbort        = 3
	msgChallenge    = 4
	msgAuthenticate = 5
	msgGoodbye      = 6
	msgError        = 8
	msgCall         = 48
	msgCancel       = 49
	msgResult       = 50
)

// Close reasons.
const (
	CloseNormal      = "wamp.close.normal"
	CloseGoodbyeAck  = "wamp.close.goodbye_and_out"
	ErrorCanceled    = "wamp.error.canceled"
	ErrorProtocol    = "wamp.error.protocol_violation"
	authMethodCrypto = "cryptosign"
)

// ErrMalformed is returned for frames that don't decode as WAMP messages.
var ErrMalformed = errors.New("malformed message")

// frame is a decoded message: its type code and the remaining elements.
type frame struct {
	code  int
	items []json.RawMessage
}

func decodeFrame(data []byte) (frame, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) == 0 {
		return frame{}, fmt.Errorf("%w: empty message", ErrMalformed)
	}
	var code int
	if err := json.Unmarshal(raw[0], &code); err != nil {
		return frame{}, fmt.Errorf("%w: message type: %v", ErrMalformed, err)
	}
	return frame{code: code, items: raw[1:]}, nil
}

// arg decodes the i-th element after the type code into v.
func (f frame) arg(i int, v any) error {
	if i >= len(f.items) {
		return fmt.Errorf("%w: message %d has no element %d", ErrMalformed, f.code, i)
	}
	return decodeValue(f.items[i], v)
}

// optional decodes the i-th element when present. Missing trailing elements
// leave v untouched.
func (f frame) optional(i int, v any) error {
	if i >= len(f.items) {
		return nil
	}
	return decodeValue(f.items[i], v)
}

// decodeValue keeps numbers as json.Number so integer payloads survive
// without float rounding.
func decodeValue(data json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// welcomeDetails is the subset of WELCOME details the shell reports.
type welcomeDetails struct {
	Realm      string `json:"realm"`
	AuthID     string `json:"authid"`
	AuthRole   string `json:"authrole"`
	AuthMethod string `json:"authmethod"`
}

type abortDetails struct {
	Message string `json:"message"`
}

type challengeExtra struct {
	Challenge string `json:"challenge"`
}

func helloMessage(realm any, details map[string]any) []any {
	return []any{msgHello, realm, details}
}

func authenticateMessage(signature string) []any {
	return []any{msgAuthenticate, signature, map[string]any{}}
}

func goodbyeMessage(reason string) []any {
	return []any{msgGoodbye, map[string]any{}, reason}
}

func callMessage(id uint64, options map[string]any, procedure string, args []any, kwargs map[string]any) []any {
	msg := []any{msgCall, id, options, procedure}
	switch {
	case len(kwargs) > 0:
		if args == nil {
			args = []any{}
		}
		msg = append(msg, args, kwargs)
	case len(args) > 0:
		msg = append(msg, args)
	}
	return msg
}

func cancelMessage(id uint64) []any {
	return []any{msgCancel, id, map[string]any{"mode": "killnowait"}}
}

// resultPayload folds RESULT arguments into a single value: the only
// positional argument, nil when there are none, or an args/kwargs mapping.
func resultPayload(args []any, kwargs map[string]any) any {
	switch {
	case len(args) == 0 && len(kwargs) == 0:
		return nil
	case len(args) == 1 && len(kwargs) == 0:
		return args[0]
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return map[string]any{"args": args, "kwargs": kwargs}
}
