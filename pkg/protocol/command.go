package protocol

import "strings"

// Command is an outbound frame.
type Command interface {
	CommandType() MessageType
}

// MoveCommand asks the service to play from→to. Promotion is null unless the
// move promotes a pawn.
type MoveCommand struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"sessionId"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Promotion *string     `json:"promotion"`
}

func (MoveCommand) CommandType() MessageType { return TypeMove }

// NewMove builds a MOVE command with squares in canonical upper case.
func NewMove(sessionID, from, to, promotion string) MoveCommand {
	cmd := MoveCommand{
		Type:      TypeMove,
		SessionID: sessionID,
		From:      CanonicalSquare(from),
		To:        CanonicalSquare(to),
	}
	if p := strings.ToLower(strings.TrimSpace(promotion)); p != "" {
		cmd.Promotion = &p
	}
	return cmd
}

// ResignCommand concedes the session.
type ResignCommand struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"sessionId"`
}

func (ResignCommand) CommandType() MessageType { return TypeResign }

func NewResign(sessionID string) ResignCommand {
	return ResignCommand{Type: TypeResign, SessionID: sessionID}
}

// CanonicalSquare upper-cases a square name ("e2" → "E2").
func CanonicalSquare(sq string) string {
	return strings.ToUpper(strings.TrimSpace(sq))
}
