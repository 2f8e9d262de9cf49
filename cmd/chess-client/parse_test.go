package main

import "testing"

func TestParseGameCommand(t *testing.T) {
	cases := []struct {
		in   string
		want gameCmd
	}{
		{"e2e4", gameCmd{kind: gameCmdMove, from: "e2", to: "e4"}},
		{"E2-E4", gameCmd{kind: gameCmdMove, from: "e2", to: "e4"}},
		{"move g1 f3", gameCmd{kind: gameCmdMove, from: "g1", to: "f3"}},
		{"mv b8c6", gameCmd{kind: gameCmdMove, from: "b8", to: "c6"}},
		{"resign", gameCmd{kind: gameCmdResign}},
		{"  Board ", gameCmd{kind: gameCmdBoard}},
		{"snapshot", gameCmd{kind: gameCmdSnapshot}},
		{"exit", gameCmd{kind: gameCmdExit}},
		{"i9j9", gameCmd{}},
		{"move e2", gameCmd{}},
		{"hello", gameCmd{}},
		{"", gameCmd{}},
	}
	for _, c := range cases {
		if got := parseGameCommand(c.in); got != c.want {
			t.Fatalf("parseGameCommand(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestSplitCommandAndConfirm(t *testing.T) {
	verb, arg := splitCommand("JOIN abc123 extra")
	if verb != "join" || arg != "abc123" {
		t.Fatalf("got %q %q", verb, arg)
	}
	if !confirmed(" Y ") || !confirmed("yes") || confirmed("") || confirmed("n") {
		t.Fatalf("confirmed misbehaves")
	}
}
