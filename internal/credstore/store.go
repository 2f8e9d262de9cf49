package credstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("credential not found")

// Credential is what the client keeps between runs: who is logged in, their
// token and the last session they opened.
type Credential struct {
	Username    string    `json:"username"`
	Token       string    `json:"token"`
	IssuedAt    time.Time `json:"issuedAt"`
	LastSession string    `json:"lastSession,omitempty"`
}

type Store interface {
	Save(ctx context.Context, c Credential) error
	Load(ctx context.Context, username string) (*Credential, error)
	// Current returns the credential of the last user saved.
	Current(ctx context.Context) (*Credential, error)
	Delete(ctx context.Context, username string) error
	Close() error
}

// RememberSession records code as the user's last opened session.
func RememberSession(ctx context.Context, s Store, username, code string) error {
	c, err := s.Load(ctx, username)
	if err != nil {
		return err
	}
	c.LastSession = strings.ToUpper(strings.TrimSpace(code))
	return s.Save(ctx, *c)
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validate(c Credential) error {
	if normalize(c.Username) == "" {
		return errors.New("credential username required")
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("credential token required")
	}
	return nil
}
