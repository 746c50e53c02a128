package main

import (
	"context"
	"time"

	"github.com/yourusername/bgsim/pkg/api"
)

// ServeCmd runs the environment service.
type ServeCmd struct {
	Host         string        `kong:"default='0.0.0.0',help='Host to bind to'"`
	Port         int           `kong:"default='8080',help='Port to listen on'"`
	MaxSessions  int           `kong:"default='1024',help='Maximum concurrent game sessions'"`
	ReadTimeout  time.Duration `kong:"default='15s',help='HTTP read timeout'"`
	WriteTimeout time.Duration `kong:"default='15s',help='HTTP write timeout'"`
	Debug        bool          `kong:"help='Enable request logging'"`
}

func (c *ServeCmd) Run() error {
	logger := newLogger(c.Debug)

	cfg := api.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.MaxSessions = c.MaxSessions
	cfg.ReadTimeout = c.ReadTimeout
	cfg.WriteTimeout = c.WriteTimeout

	srv := api.NewServer(cfg, logger)
	return srv.ListenAndServe(context.Background())
}
