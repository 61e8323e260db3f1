// Package session resolves who the locally authenticated user is. Login
// itself is the backend's business; this package only reads the session
// record the login flow left behind.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/codecommunity/cchat/internal/wire"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the current user as the rest of the client sees them.
type Identity struct {
	ID   string
	Name string
	Role string
}

// ErrNoIdentity means neither the profile record nor the token yielded a
// usable user id.
var ErrNoIdentity = errors.New("no session identity found")

// userRecord mirrors the JSON the web login flow stores; ids appear under
// any of the usual keys.
type userRecord struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// Resolve determines the current user: first from the profile's user.json,
// then from the bearer token's claims. The token signature is not verified
// here — the backend enforces auth; the claims are only a local identity
// hint.
func Resolve(userPath, token string) (Identity, error) {
	if id, err := fromFile(userPath); err == nil {
		return id, nil
	}
	if id, err := fromToken(token); err == nil {
		return id, nil
	}
	return Identity{}, ErrNoIdentity
}

func fromFile(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, err
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Identity{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return normalize(firstNonEmpty(rec.MongoID, rec.ID, rec.UserID), rec.Name, rec.Role)
}

func fromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoIdentity
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	id := wire.NormalizeID(map[string]any(claims))
	if id == "" {
		id = wire.NormalizeID(claims["userId"])
	}
	if id == "" {
		if sub, err := claims.GetSubject(); err == nil {
			id = wire.NormalizeID(sub)
		}
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	return normalize(id, name, role)
}

func normalize(id, name, role string) (Identity, error) {
	id = wire.NormalizeID(id)
	if id == "" {
		return Identity{}, ErrNoIdentity
	}
	if name == "" {
		name = wire.DefaultName
	}
	if role == "" {
		role = wire.DefaultRole
	}
	return Identity{ID: id, Name: name, Role: role}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
