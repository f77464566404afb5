package persistence

import (
	"errors"
	"io"
	"os"

	"github.com/dictkv/dictkv/internal/store"
)

// Replay applies logged mutations to st. A missing log is not an error, and
// replay stops cleanly at a truncated or corrupt tail.
func Replay(logPath string, st store.Store) error {
	f, err := os.Open(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	for {
		rec, err := DecodeFrom(f)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorrupt) {
				return nil
			}
			return err
		}
		switch rec.Op {
		case OpSet:
			if err := st.Set(rec.Key, rec.Value); err != nil {
				return err
			}
		case OpDel:
			// Deleting an already-absent key is a no-op during replay.
			_ = st.Del(rec.Key)
		}
	}
}
