package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Wire literals for server replies.
const (
	replyOK       = "OK\n"
	replyNotFound = "NOTFOUND\n"
	replyErrorFmt = "ERROR:%d"
)

var ErrInvalidReply = errors.New("invalid reply")

// WriteReply encodes one reply on the wire. For a successful GET the OK line
// is written before the value line; error replies carry no trailing newline.
func WriteReply(w io.Writer, rep Reply) error {
	switch rep.Status {
	case StatusOK:
		if _, err := io.WriteString(w, replyOK); err != nil {
			return err
		}
		if rep.Value == nil {
			return nil
		}
		if _, err := w.Write(rep.Value); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case StatusNotFound:
		_, err := io.WriteString(w, replyNotFound)
		return err
	case StatusError:
		_, err := fmt.Fprintf(w, replyErrorFmt, rep.Code)
		return err
	default:
		return ErrInvalidReply
	}
}

// ReadReply decodes one server reply. expectValue is set when the request was
// a GET, in which case a value line follows the OK line. Error replies are not
// newline-terminated; the single-digit code set keeps the read deterministic.
func ReadReply(r *bufio.Reader, expectValue bool) (Reply, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Reply{}, err
	}
	switch b {
	case 'O':
		if err := expect(r, "K\n"); err != nil {
			return Reply{}, err
		}
		if !expectValue {
			return Reply{Status: StatusOK}, nil
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return Reply{}, err
		}
		val := strings.TrimSuffix(line, "\n")
		return Reply{Status: StatusOK, Value: []byte(val)}, nil
	case 'N':
		if err := expect(r, "OTFOUND\n"); err != nil {
			return Reply{}, err
		}
		return Reply{Status: StatusNotFound}, nil
	case 'E':
		if err := expect(r, "RROR:"); err != nil {
			return Reply{}, err
		}
		d, err := r.ReadByte()
		if err != nil {
			return Reply{}, err
		}
		if d < '1' || d > '9' {
			return Reply{}, ErrInvalidReply
		}
		return Reply{Status: StatusError, Code: Code(d - '0')}, nil
	default:
		return Reply{}, ErrInvalidReply
	}
}

func expect(r *bufio.Reader, lit string) error {
	buf := make([]byte, len(lit))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if string(buf) != lit {
		return ErrInvalidReply
	}
	return nil
}
