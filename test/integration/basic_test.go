package integration

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/dictkv/dictkv/internal/protocol"
)

func startServer(t *testing.T, dataDir string, extraArgs ...string) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr = ln.Addr().String()
	ln.Close()

	args := append([]string{
		"run", "./cmd/dictkv-server",
		"--addr", addr,
		"--data-dir", dataDir,
		"--log-level", "error",
	}, extraArgs...)
	cmd := exec.CommandContext(context.Background(), "go", args...)
	cmd.Dir = filepath.Clean("../..")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	waitForReady(t, addr, 5*time.Second)

	return addr, func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}
}

func waitForReady(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server not ready on %s", addr)
}

type session struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *session {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &session{conn: conn, r: bufio.NewReader(conn)}
}

func (s *session) do(t *testing.T, frame string, expectValue bool) protocol.Reply {
	t.Helper()
	if _, err := s.conn.Write([]byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	rep, err := protocol.ReadReply(s.r, expectValue)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	_ = s.conn.SetReadDeadline(time.Time{})
	return rep
}

func (s *session) expectSilence(t *testing.T, frame string) {
	t.Helper()
	if _, err := s.conn.Write([]byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := s.r.ReadByte()
	var nerr net.Error
	if err == nil || !errors.As(err, &nerr) || !nerr.Timeout() {
		t.Fatalf("expected silence, got err=%v", err)
	}
	_ = s.conn.SetReadDeadline(time.Time{})
}

func TestBasicSetGetDel(t *testing.T) {
	addr, stop := startServer(t, t.TempDir())
	defer stop()
	s := dial(t, addr)

	if rep := s.do(t, "SET hello world\n", false); rep.Status != protocol.StatusOK {
		t.Fatalf("expected OK, got %v", rep.Status)
	}
	rep := s.do(t, "GET hello\n", true)
	if rep.Status != protocol.StatusOK || string(rep.Value) != "world" {
		t.Fatalf("expected world, got %v %q", rep.Status, rep.Value)
	}
	if rep := s.do(t, "DEL hello\n", false); rep.Status != protocol.StatusOK {
		t.Fatalf("expected OK, got %v", rep.Status)
	}
	if rep := s.do(t, "GET hello\n", true); rep.Status != protocol.StatusNotFound {
		t.Fatalf("expected NOTFOUND, got %v", rep.Status)
	}
}

func TestInvalidFramesKeepConnection(t *testing.T) {
	addr, stop := startServer(t, t.TempDir())
	defer stop()
	s := dial(t, addr)

	s.expectSilence(t, "HELLO world\n")
	s.expectSilence(t, "SET onlyone\n")

	if rep := s.do(t, "SET k v\n", false); rep.Status != protocol.StatusOK {
		t.Fatalf("expected OK after invalid frames, got %v", rep.Status)
	}
}
