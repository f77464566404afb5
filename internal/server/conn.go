package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"

	"github.com/dictkv/dictkv/internal/protocol"
)

// newFrameFSM tracks one frame through the request loop. A parse failure
// never leaves idle.
func newFrameFSM() *fsm.FSM {
	return fsm.NewFSM(
		"idle",
		fsm.Events{
			{Name: "parse", Src: []string{"idle"}, Dst: "parsed"},
			{Name: "execute", Src: []string{"parsed"}, Dst: "executed"},
			{Name: "reply", Src: []string{"executed"}, Dst: "replied"},
			{Name: "reset", Src: []string{"replied"}, Dst: "idle"},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logrus.Debugf("frame %s -> %s", e.Src, e.Dst)
			},
		},
	)
}

// handleConn runs the receive loop for one client. Each read delivers one
// frame; the peer closing or a read error ends the session.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	machine := newFrameFSM()
	buf := make([]byte, s.cfg.BufferSize)
	ctx := context.Background()

	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.IdleTimeout)))
		}
		n, err := conn.Read(buf)
		if err != nil {
			s.logDisconnect(conn, err)
			return
		}
		if n == 0 {
			continue
		}
		logrus.Debugf("%d bytes arrived into server: %q", n, buf[:n])

		req, perr := protocol.ParseFrame(buf[:n])
		if perr != nil {
			// Invalid frames get no reply; the connection stays usable.
			code, _ := protocol.WireCode(perr)
			s.metrics.RecordParseError(strconv.Itoa(int(code)))
			logrus.Errorf("cannot parse frame from %s: %v [%d]", conn.RemoteAddr(), perr, code)
			continue
		}
		_ = machine.Event(ctx, "parse")

		rep := s.execute(req)
		_ = machine.Event(ctx, "execute")

		if err := protocol.WriteReply(conn, rep); err != nil {
			// A failed send marks the request failed but keeps the session.
			s.metrics.RecordSendError()
			logrus.Errorf("sending reply to %s: %v", conn.RemoteAddr(), err)
		}
		_ = machine.Event(ctx, "reply")
		_ = machine.Event(ctx, "reset")
	}
}

func (s *Server) logDisconnect(conn net.Conn, err error) {
	switch {
	case errors.Is(err, io.EOF):
		logrus.Infof("client [%s] closed connection", conn.RemoteAddr())
	case errors.Is(err, syscall.ENOTCONN):
		logrus.Errorf("client [%s] is disconnecting", conn.RemoteAddr())
	case errors.Is(err, syscall.ECONNRESET):
		logrus.Errorf("peer [%s] reset connection", conn.RemoteAddr())
	case errors.Is(err, os.ErrDeadlineExceeded):
		logrus.Warnf("idle timeout on [%s]", conn.RemoteAddr())
	default:
		logrus.Debugf("read from [%s]: %v", conn.RemoteAddr(), err)
	}
}
