package baseserver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"deployer/internals/assert"
	"deployer/internals/conf"
	"deployer/internals/env"
)

type BaseServer struct {
	Config *conf.Config
	Env    *env.EnvStruct
	Logger *slog.Logger
}

func New() *BaseServer {
	environment := env.Get()
	config := conf.GetConfig()
	logger := initLogger(config)

	return &BaseServer{
		Config: config,
		Env:    environment,
		Logger: logger,
	}
}

func initLogger(config *conf.Config) *slog.Logger {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[BASESERVER] Failed to initialize log directory")

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[BASESERVER] Failed to open log file")

	writer := io.MultiWriter(os.Stdout, logFile)
	handler := tint.NewHandler(writer, &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
