package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("session.player", struct {
		Color, Name, Clock string
		You                bool
	}{"WHITE", "alice", "09:59", true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "WHITE (You)  alice  09:59" {
		t.Fatalf("got %q", got)
	}
	row := c.Text("lobby.game_row", struct{ Code, Status, Result, Created string }{"ABC123", "ACTIVE", "-", "2024-01-01"})
	if !strings.HasPrefix(row, "ABC123    ACTIVE     -") {
		t.Fatalf("row = %q", row)
	}
}

func TestRender_MissingKeyAndField(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("nope.nothing", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("lobby.created", map[string]string{}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.Text("nope.nothing", nil); got != "nope.nothing" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("move:\n  illegal: \"Nope: {{.From}}{{.To}}\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("move.illegal", struct{ From, To string }{"E2", "E5"}); got != "Nope: E2E5" {
		t.Fatalf("override not applied: %q", got)
	}
	if !c.Has("move.sent") {
		t.Fatalf("defaults lost after override")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("move:\n  illegal: again\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate override key accepted")
	}
}

func TestParse_RejectsNonStringLeaves(t *testing.T) {
	if _, err := parseYAMLToFlat([]byte("a:\n  b: 3\n")); err == nil {
		t.Fatalf("expected error for integer leaf")
	}
}
