package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fisapp/receipt-bff-go/internal/domain"
)

// --- Accounts API (implements port.Authenticator) ---

// authEnvelope tolerates both the {success, token, user} envelope and
// the older flat {token, user} shape.
type authEnvelope struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login exchanges credentials for a bearer token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Backend.Login")
	defer span.End()

	var sess *domain.Session

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}
		s, err := decodeSession(body)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err != nil {
		return nil, wrapErr("auth/login", err)
	}

	return sess, nil
}

// Register creates an account and returns the initial session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Backend.Register")
	defer span.End()

	var sess *domain.Session

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", domain.RegisterRequest{
			Name:     name,
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}
		s, err := decodeSession(body)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err != nil {
		return nil, wrapErr("auth/register", err)
	}

	return sess, nil
}

// Me resolves the user behind a token. The backend is the authority;
// an Unauthorized result here means the session must be discarded.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Backend.Me")
	defer span.End()

	var user *domain.User

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil)
		if err != nil {
			return err
		}

		var env struct {
			User *domain.User `json:"user"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("decode me response: %w", err)
		}
		if env.User == nil {
			// flat user object
			var u domain.User
			if err := json.Unmarshal(body, &u); err != nil || u.ID == "" {
				return fmt.Errorf("me response missing user")
			}
			user = &u
			return nil
		}
		user = env.User
		return nil
	})
	if err != nil {
		return nil, wrapErr("auth/me", err)
	}

	return user, nil
}

func decodeSession(body []byte) (*domain.Session, error) {
	var env authEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if env.Token == "" || env.User == nil {
		return nil, fmt.Errorf("auth response missing token or user")
	}
	return &domain.Session{Token: env.Token, User: *env.User}, nil
}
