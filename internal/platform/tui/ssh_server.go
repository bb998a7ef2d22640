package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/mathrain/internal/core"
	"github.com/vovakirdan/mathrain/internal/raindrops"
	"github.com/vovakirdan/mathrain/internal/storage"
)

const shutdownGrace = 10 * time.Second

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key is generated at ~/.mathrain/host_key.
	HostKeyPath string

	// DBPath is the practice journal shared by all players. Empty disables it.
	DBPath string

	IdleTimeout time.Duration

	// MaxPlayers caps concurrent games. Zero means no cap.
	MaxPlayers int

	FPS   int
	Rules raindrops.Config
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.mathrain/journal.db",
		IdleTimeout: 30 * time.Minute,
		MaxPlayers:  32,
		FPS:         core.DefaultConfig().FPS,
		Rules:       raindrops.DefaultConfig(),
	}
}

// SSHServer hosts one independent game per SSH session.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger

	mu    sync.Mutex
	seats map[string]*seat // Keyed by SSH session ID
}

// seat is a claimed player slot. The game is attached once the PTY is up.
type seat struct {
	ctrl    *raindrops.Controller
	journal *storage.Journal
}

// NewSSHServer creates a server. A journal that cannot be opened is logged
// and play continues without it.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "mathrain-ssh",
		})
	}

	srv := &SSHServer{
		config: cfg,
		logger: logger,
		seats:  make(map[string]*seat),
	}

	if cfg.DBPath != "" {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("practice journal unavailable", "path", cfg.DBPath, "error", err)
		} else {
			srv.store = store
		}
	}

	hostKeyPath, err := resolveHostKeyPath(cfg.HostKeyPath)
	if err != nil {
		srv.closeStore()
		return nil, err
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.admitMiddleware,
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		srv.closeStore()
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// resolveHostKeyPath falls back to ~/.mathrain/host_key and makes sure the
// key's directory exists.
func resolveHostKeyPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		path = filepath.Join(home, ".mathrain", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("cannot create host key directory: %w", err)
	}
	return path, nil
}

// teaHandler builds a fresh game for the connecting player.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	model := NewModel(Options{
		Rules: s.config.Rules,
		Runtime: core.RuntimeConfig{
			ScreenW: pty.Window.Width,
			ScreenH: pty.Window.Height,
			FPS:     s.config.FPS,
			Seed:    time.Now().UnixNano(),
		},
		Store:  s.store,
		Player: sess.User(),
		Logger: s.logger.With("user", sess.User()),
	})
	s.attach(sess.Context().SessionID(), model)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// admitMiddleware claims a seat for the connection or turns it away once
// MaxPlayers games are running. The seat is freed however the session ends.
func (s *SSHServer) admitMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		id := sess.Context().SessionID()
		if !s.reserve(id) {
			s.logger.Warn("server full", "user", sess.User(), "players", s.Players())
			wish.Fatalln(sess, "math rain is full right now, try again in a minute")
			return
		}
		defer func() {
			if st, ok := s.leave(id); ok {
				s.logger.Info("game closed", "user", sess.User(), "phase", st.Phase, "score", st.Score, "level", st.Level)
			}
		}()
		next(sess)
	}
}

// loggingMiddleware logs each connection.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		started := time.Now()
		s.logger.Info("player connected",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("player disconnected",
			"user", sess.User(),
			"duration", time.Since(started).Round(time.Second),
		)
	}
}

// reserve claims a seat for id unless the server is full.
func (s *SSHServer) reserve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.MaxPlayers > 0 && len(s.seats) >= s.config.MaxPlayers {
		return false
	}
	s.seats[id] = &seat{}
	return true
}

// attach binds a started game to its reserved seat.
func (s *SSHServer) attach(id string, m Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.seats[id]; ok {
		st.ctrl = m.ctrl
		st.journal = m.journal
	}
}

// leave frees the seat and closes the player's journal session, which is
// still open when the client drops without quitting. It reports the final
// state if a game was attached.
func (s *SSHServer) leave(id string) (raindrops.State, bool) {
	s.mu.Lock()
	st, ok := s.seats[id]
	delete(s.seats, id)
	s.mu.Unlock()

	if !ok || st.ctrl == nil {
		return raindrops.State{}, false
	}
	state := st.ctrl.State()
	if st.journal != nil {
		st.journal.Finish()
	}
	return state, true
}

// Players returns the number of claimed seats.
func (s *SSHServer) Players() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seats)
}

// ListenAndServe starts the SSH server and blocks until SIGINT or SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address, "max_players", s.config.MaxPlayers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down", "players", s.Players())
	return s.Shutdown()
}

// Shutdown stops accepting players and closes the journal.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.closeStore()
	return err
}

func (s *SSHServer) closeStore() {
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
