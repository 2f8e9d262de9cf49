package lobby

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CreateResponse struct {
	GameCode string `json:"gameCode"`
	Message  string `json:"message,omitempty"`
}

type JoinResponse struct {
	Success  bool   `json:"success"`
	GameCode string `json:"gameCode"`
}

// GameState is the stored snapshot of one session.
type GameState struct {
	GameCode    string `json:"gameCode"`
	FEN         string `json:"fen"`
	Turn        string `json:"turn"`
	Status      string `json:"status"`
	WhitePlayer string `json:"whitePlayer"`
	BlackPlayer string `json:"blackPlayer"`
	Result      string `json:"result,omitempty"`
}

// GameSummary is one row of the caller's game list.
type GameSummary struct {
	GameCode   string  `json:"gameCode"`
	Status     string  `json:"status"`
	Result     *string `json:"result"`
	Turn       string  `json:"turn"`
	CreatedAt  string  `json:"createdAt"`
	LastMoveAt *string `json:"lastMoveAt"`
}

// ResultLabel is "<name> won", or "-" while the game has no result.
func (g GameSummary) ResultLabel() string {
	if g.Result == nil || *g.Result == "" {
		return "-"
	}
	return *g.Result + " won"
}
