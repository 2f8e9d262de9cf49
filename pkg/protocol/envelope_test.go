package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseEnvelope_RejectsGarbage(t *testing.T) {
	cases := []string{``, `not json`, `[1,2]`, `{"payload":{}}`, `{"type":""}`}
	for _, c := range cases {
		if _, err := ParseEnvelope([]byte(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestGameUpdate_DataKeyAndTopLevelSide(t *testing.T) {
	raw := `{"type":"GAME_UPDATE","yourSide":"BLACK","data":{"fen":"8/8/8/8/8/8/8/8 w - - 0 1","status":"ACTIVE","turn":"WHITE","whitePlayer":"alice","blackPlayer":"bob","yourSide":"WHITE"},"timestamp":1}`
	env, err := ParseEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	u := env.GameUpdate()
	if u.Position == nil || *u.Position != "8/8/8/8/8/8/8/8 w - - 0 1" {
		t.Fatalf("position not decoded: %+v", u.Position)
	}
	if u.Status == nil || *u.Status != "ACTIVE" || u.Turn == nil || *u.Turn != "WHITE" {
		t.Fatalf("status/turn not decoded")
	}
	if u.WhitePlayer == nil || *u.WhitePlayer != "alice" || u.BlackPlayer == nil || *u.BlackPlayer != "bob" {
		t.Fatalf("players not decoded")
	}
	if u.YourSide == nil || *u.YourSide != "BLACK" {
		t.Fatalf("envelope-level yourSide should win, got %v", u.YourSide)
	}
}

func TestGameUpdate_PayloadPlayersObject(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"game_update","payload":{"players":{"white":"Bob"}}}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.Type != TypeGameUpdate {
		t.Fatalf("type should be normalised, got %q", env.Type)
	}
	u := env.GameUpdate()
	if u.WhitePlayer == nil || *u.WhitePlayer != "Bob" {
		t.Fatalf("white player missing")
	}
	if u.Position != nil || u.Status != nil || u.Turn != nil || u.BlackPlayer != nil || u.YourSide != nil {
		t.Fatalf("unexpected fields: %+v", u)
	}
}

func TestGameUpdate_NonStringPositionKeptRaw(t *testing.T) {
	env, _ := ParseEnvelope([]byte(`{"type":"GAME_UPDATE","payload":{"fen":42,"status":7}}`))
	u := env.GameUpdate()
	if u.Position == nil || *u.Position != "42" {
		t.Fatalf("non-string position should be kept raw, got %v", u.Position)
	}
	if u.Status != nil {
		t.Fatalf("non-string status should be dropped")
	}
}

func TestGameEnd_StringBody(t *testing.T) {
	env, _ := ParseEnvelope([]byte(`{"type":"PLAYER_LEFT","data":"Player disconnected"}`))
	if !env.Type.Terminal() {
		t.Fatalf("PLAYER_LEFT should be terminal")
	}
	if got := env.GameEnd(); got != (GameEnd{}) {
		t.Fatalf("expected zero GameEnd, got %+v", got)
	}
	if env.Text() != "Player disconnected" {
		t.Fatalf("text body = %q", env.Text())
	}
}

func TestGameEnd_Fields(t *testing.T) {
	env, _ := ParseEnvelope([]byte(`{"type":"GAME_END","payload":{"winner":"BLACK","loser":"alice","reason":"Checkmate"}}`))
	got := env.GameEnd()
	if got.Winner != "BLACK" || got.Loser != "alice" || got.Reason != "Checkmate" {
		t.Fatalf("unexpected GameEnd %+v", got)
	}
}

func TestNewMove_CanonicalAndNullPromotion(t *testing.T) {
	b, err := json.Marshal(NewMove("ABC123", "e2", "e4", ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"MOVE","sessionId":"ABC123","from":"E2","to":"E4","promotion":null}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
	b, _ = json.Marshal(NewMove("ABC123", "e7", "e8", "Q"))
	want = `{"type":"MOVE","sessionId":"ABC123","from":"E7","to":"E8","promotion":"q"}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestNewResign(t *testing.T) {
	b, _ := json.Marshal(NewResign("ABC123"))
	if string(b) != `{"type":"RESIGN","sessionId":"ABC123"}` {
		t.Fatalf("unexpected resign json %s", b)
	}
}

func TestFlatFrame_FieldsAtTopLevel(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"GAME_END","winner":"BLACK","reason":"Resignation"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if got := env.GameEnd(); got.Winner != "BLACK" || got.Reason != "Resignation" {
		t.Fatalf("flat GameEnd = %+v", got)
	}

	env, err = ParseEnvelope([]byte(`{"type":"GAME_UPDATE","status":"ACTIVE","turn":"BLACK","whitePlayer":"alice"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	u := env.GameUpdate()
	if u.Status == nil || *u.Status != "ACTIVE" || u.Turn == nil || *u.Turn != "BLACK" || u.WhitePlayer == nil || *u.WhitePlayer != "alice" {
		t.Fatalf("flat GameUpdate = %+v", u)
	}

	env, _ = ParseEnvelope([]byte(`{"type":"GAME_END","winner":"WHITE","data":{"winner":"BLACK"}}`))
	if got := env.GameEnd(); got.Winner != "BLACK" {
		t.Fatalf("data body should win over top-level fields, got %+v", got)
	}
}
