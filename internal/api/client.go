// Package api is the REST client for the chat backend's roster and history
// endpoints. Responses pass through the wire normalizers, so inconsistent
// payload shapes never leak past this package.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/wire"
	"go.uber.org/zap"
)

// Client talks to the chat REST endpoints with bearer auth.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a REST client rooted at baseURL (no trailing slash).
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// FetchRoster fetches the current user's conversation partners.
// GET {base}/api/chat/users
func (c *Client) FetchRoster(ctx context.Context) ([]store.Peer, error) {
	var raw []map[string]any
	if err := c.get(ctx, "/api/chat/users", &raw); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}

	peers := make([]store.Peer, 0, len(raw))
	for _, entry := range raw {
		peer := store.Peer{
			ID:              wire.NormalizeID(entry),
			Name:            stringOr(entry["name"], wire.DefaultName),
			Role:            stringOr(entry["role"], wire.DefaultRole),
			LastMessage:     stringOr(entry["lastMessage"], ""),
			LastMessageTime: stringOr(entry["lastMessageTime"], ""),
			Unread:          intOr(entry["unreadCount"]),
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// FetchHistory fetches the message log for one peer, already normalized.
// GET {base}/api/chat/messages/{peerID}
func (c *Client) FetchHistory(ctx context.Context, peerID string) ([]wire.Message, error) {
	var raw []any
	path := "/api/chat/messages/" + url.PathEscape(peerID)
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", peerID, err)
	}

	msgs := make([]wire.Message, 0, len(raw))
	for _, entry := range raw {
		msgs = append(msgs, wire.NormalizeMessage(entry))
	}
	return msgs, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("request failed", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func intOr(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
