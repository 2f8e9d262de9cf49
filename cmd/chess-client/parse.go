package main

import "strings"

type gameCmdKind int

const (
	gameCmdUnknown gameCmdKind = iota
	gameCmdMove
	gameCmdResign
	gameCmdBoard
	gameCmdStatus
	gameCmdSnapshot
	gameCmdHelp
	gameCmdExit
)

type gameCmd struct {
	kind     gameCmdKind
	from, to string
}

// parseGameCommand reads one in-game line: a move in any of
// "e2e4", "e2-e4", "move e2 e4", "move e2e4", or a keyword.
func parseGameCommand(line string) gameCmd {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return gameCmd{}
	}
	switch fields[0] {
	case "resign":
		return gameCmd{kind: gameCmdResign}
	case "board":
		return gameCmd{kind: gameCmdBoard}
	case "status":
		return gameCmd{kind: gameCmdStatus}
	case "snapshot":
		return gameCmd{kind: gameCmdSnapshot}
	case "help", "?":
		return gameCmd{kind: gameCmdHelp}
	case "exit", "quit", "leave":
		return gameCmd{kind: gameCmdExit}
	case "move", "mv":
		fields = fields[1:]
	}

	var from, to string
	switch len(fields) {
	case 1:
		raw := strings.ReplaceAll(fields[0], "-", "")
		if len(raw) != 4 {
			return gameCmd{}
		}
		from, to = raw[:2], raw[2:]
	case 2:
		from, to = fields[0], fields[1]
	default:
		return gameCmd{}
	}
	if !isSquare(from) || !isSquare(to) {
		return gameCmd{}
	}
	return gameCmd{kind: gameCmdMove, from: from, to: to}
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// splitCommand separates a lobby line into its verb and first argument.
func splitCommand(line string) (verb, arg string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "", ""
	}
	verb = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = fields[1]
	}
	return verb, arg
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
