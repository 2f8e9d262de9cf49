package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType is the discriminator carried by every frame on the session channel.
type MessageType string

const (
	TypeGameUpdate         MessageType = "GAME_UPDATE"
	TypeGameEnd            MessageType = "GAME_END"
	TypePlayerLeft         MessageType = "PLAYER_LEFT"
	TypePlayerDisconnected MessageType = "PLAYER_DISCONNECTED"
	TypeConnected          MessageType = "CONNECTED"
	TypePlayerJoined       MessageType = "PLAYER_JOINED"
	TypeMoveInvalid        MessageType = "MOVE_INVALID"
	TypeError              MessageType = "ERROR"

	TypeMove   MessageType = "MOVE"
	TypeResign MessageType = "RESIGN"
)

var ErrMissingType = errors.New("envelope has no type")

// Envelope is an inbound frame. The server historically puts the body under
// "data"; newer builds use "payload". Body() hides the difference.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	YourSide  string          `json:"yourSide,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`

	// raw is the whole frame; flat frames carry their fields at the top level.
	raw json.RawMessage
}

// ParseEnvelope decodes one frame. Anything that is not a JSON object with a
// non-empty type is rejected.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	env.Type = MessageType(strings.ToUpper(strings.TrimSpace(string(env.Type))))
	if env.Type == "" {
		return nil, ErrMissingType
	}
	env.raw = append(json.RawMessage(nil), raw...)
	return &env, nil
}

// Body returns the payload, falling back to data and then to the frame
// itself when neither is present.
func (e *Envelope) Body() json.RawMessage {
	if e == nil {
		return nil
	}
	if !isEmptyJSON(e.Payload) {
		return e.Payload
	}
	if !isEmptyJSON(e.Data) {
		return e.Data
	}
	if !isEmptyJSON(e.raw) {
		return e.raw
	}
	return nil
}

// Known reports whether the type is one the client understands.
func (t MessageType) Known() bool {
	switch t {
	case TypeGameUpdate, TypeGameEnd, TypePlayerLeft, TypePlayerDisconnected,
		TypeConnected, TypePlayerJoined, TypeMoveInvalid, TypeError:
		return true
	default:
		return false
	}
}

// Terminal reports whether the type ends the game.
func (t MessageType) Terminal() bool {
	return t == TypeGameEnd || t == TypePlayerLeft || t == TypePlayerDisconnected
}

// GameUpdate is a partial authoritative update. A nil field was absent.
type GameUpdate struct {
	Position    *string
	Status      *string
	Turn        *string
	WhitePlayer *string
	BlackPlayer *string
	YourSide    *string
}

// Empty reports whether the update carries nothing to apply.
func (u *GameUpdate) Empty() bool {
	return u == nil || (u.Position == nil && u.Status == nil && u.Turn == nil &&
		u.WhitePlayer == nil && u.BlackPlayer == nil && u.YourSide == nil)
}

// GameUpdate decodes the body field by field so that one malformed field never
// takes the others down with it. A position that is present but not a string is
// kept in raw form; the caller rejects it when it fails to load.
func (e *Envelope) GameUpdate() *GameUpdate {
	u := &GameUpdate{}
	fields := objectFields(e.Body())
	if fields != nil {
		if raw, ok := firstPresent(fields, "fen", "position"); ok {
			if s, ok := stringValue(raw); ok {
				if strings.TrimSpace(s) != "" {
					u.Position = &s
				}
			} else {
				bad := strings.TrimSpace(string(raw))
				u.Position = &bad
			}
		}
		u.Status = stringField(fields, "status")
		u.Turn = stringField(fields, "turn")
		u.WhitePlayer = nonEmpty(stringField(fields, "whitePlayer"))
		u.BlackPlayer = nonEmpty(stringField(fields, "blackPlayer"))
		if players := objectFields(fields["players"]); players != nil {
			if w := nonEmpty(stringField(players, "white")); w != nil {
				u.WhitePlayer = w
			}
			if b := nonEmpty(stringField(players, "black")); b != nil {
				u.BlackPlayer = b
			}
		}
		u.YourSide = nonEmpty(stringField(fields, "yourSide"))
	}
	if side := strings.TrimSpace(e.YourSide); side != "" {
		u.YourSide = &side
	}
	return u
}

// GameEnd is the body of GAME_END, PLAYER_LEFT and PLAYER_DISCONNECTED.
type GameEnd struct {
	Winner string
	Loser  string
	Reason string
}

// GameEnd decodes a terminal body. Non-object bodies (the server sends a bare
// string for PLAYER_LEFT) decode to a zero GameEnd.
func (e *Envelope) GameEnd() GameEnd {
	var out GameEnd
	fields := objectFields(e.Body())
	if fields == nil {
		return out
	}
	if s := stringField(fields, "winner"); s != nil {
		out.Winner = strings.TrimSpace(*s)
	}
	if s := stringField(fields, "loser"); s != nil {
		out.Loser = strings.TrimSpace(*s)
	}
	if s := stringField(fields, "reason"); s != nil {
		out.Reason = strings.TrimSpace(*s)
	}
	return out
}

// Text returns the body when it is a bare JSON string (CONNECTED, ERROR, ...).
func (e *Envelope) Text() string {
	s, _ := stringValue(e.Body())
	return s
}

func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func firstPresent(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := fields[k]; ok && !isEmptyJSON(raw) {
			return raw, true
		}
	}
	return nil, false
}

func stringField(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	s, ok := stringValue(raw)
	if !ok {
		return nil
	}
	return &s
}

func stringValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
