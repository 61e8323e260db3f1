// Package app composes the chat client: every component is an fx provider
// and the lifecycle hook brings the realtime session, outbox sender and UI
// up and down in order.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/codecommunity/cchat/internal/api"
	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/config"
	"github.com/codecommunity/cchat/internal/lock"
	"github.com/codecommunity/cchat/internal/logging"
	"github.com/codecommunity/cchat/internal/outbox"
	"github.com/codecommunity/cchat/internal/presence"
	"github.com/codecommunity/cchat/internal/rt"
	"github.com/codecommunity/cchat/internal/session"
	"github.com/codecommunity/cchat/internal/status"
	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/tui"
	"github.com/codecommunity/cchat/internal/tui/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Token   string // optional override; empty = token file / CCHAT_TOKEN
}

// Token is the resolved bearer token for this session.
type Token string

// Module returns the fx module for the chat client, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("cchat",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLock,
			provideLogger,
			provideToken,
			provideIdentity,
			provideBus,
			provideStateMachine,
			provideStore,
			provideTracker,
			provideDispatcher,
			provideRealtime,
			provideDebouncer,
			provideQueue,
			provideSender,
			provideAPIClient,
			provideController,
			provideUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	return config.Load(session.ConfigPath())
}

// provideLock takes the profile lock up front so a second client on the
// same profile fails fast instead of fighting over state.
func provideLock(p Params) (*lock.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return lock.Acquire(session.Dir(p.Profile))
}

func provideLogger(p Params, _ *lock.Lock) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.Profile), p.Profile, false)
}

// provideToken resolves the bearer token: explicit override, then the
// profile's token file, then the environment.
func provideToken(p Params) Token {
	if p.Token != "" {
		return Token(p.Token)
	}
	if data, err := os.ReadFile(session.TokenPath(p.Profile)); err == nil {
		return Token(strings.TrimSpace(string(data)))
	}
	return Token(os.Getenv("CCHAT_TOKEN"))
}

func provideIdentity(p Params, token Token, logger *zap.Logger) (session.Identity, error) {
	id, err := session.Resolve(session.UserPath(p.Profile), string(token))
	if err != nil {
		return session.Identity{}, err
	}
	logger.Info("session identity resolved",
		zap.String("user", id.ID), zap.String("role", id.Role))
	return id, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideStore(id session.Identity, b *bus.Bus, logger *zap.Logger) *store.Store {
	return store.New(id.ID, b, logger)
}

func provideTracker(s *store.Store, b *bus.Bus) *presence.Tracker {
	return presence.NewTracker(b, s.OpenPeer)
}

func provideDispatcher(s *store.Store, p *presence.Tracker, logger *zap.Logger) *rt.Dispatcher {
	return rt.NewDispatcher(s, p, logger)
}

func provideRealtime(cfg *config.Config, token Token, m *status.Machine, b *bus.Bus, d *rt.Dispatcher, logger *zap.Logger) *rt.Client {
	return rt.NewClient(rt.Options{
		URL:          cfg.SocketURL,
		Token:        string(token),
		ReconnectMin: cfg.ReconnectMin(),
		ReconnectMax: cfg.ReconnectMax(),
	}, nil, m, b, d.Dispatch, logger)
}

// provideDebouncer routes the local typing debounce into realtime intents.
// Intent failures while disconnected are expected and dropped.
func provideDebouncer(cfg *config.Config, client *rt.Client) *presence.Debouncer {
	return presence.NewDebouncer(cfg.TypingQuiet(),
		func(peerID string) { _ = client.Typing(peerID) },
		func(peerID string) { _ = client.StopTyping(peerID) },
	)
}

func provideQueue() *outbox.Queue {
	return outbox.NewQueue()
}

func provideSender(cfg *config.Config, q *outbox.Queue, client *rt.Client, m *status.Machine, s *store.Store, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(q, client, m, s, b, logger, cfg.OutboxTick())
}

func provideAPIClient(cfg *config.Config, token Token, logger *zap.Logger) *api.Client {
	return api.NewClient(cfg.APIURL, string(token), logger)
}

func provideController(s *store.Store, p *presence.Tracker, d *presence.Debouncer, q *outbox.Queue, backend *api.Client, client *rt.Client, id session.Identity, logger *zap.Logger) *model.Controller {
	return model.NewController(s, p, d, q, backend, client, id, logger)
}

func provideUI(p Params, ctrl *model.Controller, s *store.Store, tr *presence.Tracker, q *outbox.Queue, m *status.Machine, b *bus.Bus) *tui.App {
	return tui.New(p.Profile, ctrl, s, tr, q, m, b)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, lk *lock.Lock, client *rt.Client, sender *outbox.Sender, ctrl *model.Controller, ui *tui.App, s *store.Store, tr *presence.Tracker, q *outbox.Queue, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			client.Start(context.Background())
			sender.Start(context.Background())

			// The UI owns the terminal; when it exits, the whole app stops.
			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("ui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()

			logger.Info("chat client started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			ui.Stop()
			ctrl.Close()
			sender.Stop()
			client.Stop()
			s.Reset()
			tr.Reset()
			q.Reset()
			_ = lk.Release()
			logger.Info("chat client stopped")
			return nil
		},
	})
}
