package server

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/dictkv/dictkv/internal/config"
	"github.com/dictkv/dictkv/internal/persistence"
	"github.com/dictkv/dictkv/internal/stats"
	"github.com/dictkv/dictkv/internal/store"
)

// Server ties together the listener, the parser-and-reply loop, and the
// backing store. The write log is nil unless the memory backend logs
// mutations.
type Server struct {
	cfg     *config.Config
	st      store.Store
	wlog    *persistence.Log
	metrics *stats.Metrics
}

func New(cfg *config.Config, st store.Store, wlog *persistence.Log, metrics *stats.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		st:      st,
		wlog:    wlog,
		metrics: metrics,
	}
}

// ListenAndServe binds the configured address and serves until the context is
// cancelled. Bind and accept failures are returned; the process treats them
// as fatal.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. Connections are handled one at a time
// unless the concurrent mode is configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	logrus.Infof("dictkv listening on %s", ln.Addr())
	for {
		logrus.Debugf("waiting for connection")
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.metrics.RecordConnection()
		logrus.Infof("connection from [%s]", conn.RemoteAddr())
		if s.cfg.Concurrent {
			go s.handleConn(conn)
		} else {
			s.handleConn(conn)
		}
	}
}
