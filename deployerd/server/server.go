package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"deployer/deployerd/baseserver"
	"deployer/internals/assert"
	"deployer/internals/logbuf"
	"deployer/internals/notify"
	"deployer/internals/pages"
	"deployer/internals/publish"
	"deployer/internals/worktree"
	"deployer/sdk"
)

type Server struct {
	Base       *baseserver.BaseServer
	Logbuf     *logbuf.Logger
	runs       *runManager
	httpServer *http.Server

	Worktree  *worktree.Builder
	Publisher publish.Host
	Pages     *pages.Poller
	Notifier  *notify.Notifier
}

func New() *Server {
	base := baseserver.New()
	buffer := logbuf.New(
		slog.String("version", base.Config.Version),
		slog.Int("port", base.Env.PORT),
	)

	storePath := filepath.Join(base.Config.Server.DataDir, "runs", "runs.db")
	err := os.MkdirAll(filepath.Dir(storePath), 0o755)
	assert.AssertNil(err, "[SERVER] Failed to create data directory")
	store, err := newRunStore(storePath)
	assert.AssertNil(err, "[SERVER] Failed to initialize run store")
	manager := newRunManager(store, base.Logger)

	err = os.MkdirAll(base.Config.Work.Dir, 0o755)
	assert.AssertNil(err, "[SERVER] Failed to create work directory")

	owner := base.Env.GIT_AUTHOR_NAME
	if owner == "" {
		owner = base.Env.GITHUB_USER
	}

	return &Server{
		Base:     base,
		Logbuf:   buffer,
		runs:     manager,
		Worktree: worktree.NewBuilder(base.Config.Work.Dir, owner, base.Logger),
		Publisher: publish.NewLocal(
			base.Env.GITHUB_USER,
			base.Env.GIT_AUTHOR_NAME,
			base.Env.GIT_AUTHOR_EMAIL,
			base.Logger,
		),
		Pages: pages.NewPoller(
			time.Duration(base.Config.Pages.PollTimeoutSeconds)*time.Second,
			time.Duration(base.Config.Pages.PollIntervalSeconds)*time.Second,
			base.Logger,
		),
		Notifier: notify.NewNotifier(base.Config.Notify.MaxAttempts, base.Logger),
	}
}

func (s *Server) SafeStart() error {
	if sdk.IsRunning(s.Base.Env.BASE_URL) {
		return nil
	}

	go func() {
		s.Base.Logger.Info("starting server")
		if err := s.Start(); err != nil {
			log.Fatal("[Deployer] Failed to start server: " + err.Error())
		}
	}()

	if sdk.WaitForStart(s.Base.Env.BASE_URL, s.Base.Logger) {
		return nil
	}

	return errors.New("couldn't start server")
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if s.httpServer == nil {
			s.Base.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
	}()
}
