package persistence

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
)

const logFileName = "dictkv.log"

type Options struct {
	Fsync bool
}

// Log is an append-only mutation log for the in-memory backend.
type Log struct {
	mu   sync.Mutex
	f    *os.File
	buf  *bufio.Writer
	opts Options
}

func LogPath(dir string) string {
	return filepath.Join(dir, logFileName)
}

func OpenLog(dir string, opts Options) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(LogPath(dir), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{
		f:    f,
		buf:  bufio.NewWriter(f),
		opts: opts,
	}, nil
}

func (l *Log) Append(rec Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.buf.Write(data); err != nil {
		return err
	}
	if err := l.buf.Flush(); err != nil {
		return err
	}
	if l.opts.Fsync {
		return l.f.Sync()
	}
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}
