package protocol

import "strings"

// frame separators: the wire format forbids space and newline in keys and values.
func isSeparator(r rune) bool {
	return r == ' ' || r == '\n'
}

// ParseFrame tokenizes one received frame into a Request.
//
// The tag is detected by substring search, probed in the order GET, SET, DEL;
// the first hit wins, so a frame containing several tags resolves to GET first.
// The frame is then split on spaces and newlines and the first token, which
// carries the tag, is discarded. The remaining tokens are the arguments.
func ParseFrame(frame []byte) (Request, error) {
	// The size check runs first, so a nil frame reports a size error; CodeNull
	// stays reserved on the wire.
	if len(frame) < MinFrameSize {
		return Request{}, ErrShortFrame
	}

	text := string(frame)

	var op Op
	switch {
	case strings.Contains(text, TagGet):
		op = OpGet
	case strings.Contains(text, TagSet):
		op = OpSet
	case strings.Contains(text, TagDel):
		op = OpDel
	default:
		return Request{}, ErrNoTag
	}

	tokens := strings.FieldsFunc(text, isSeparator)
	if len(tokens) == 0 {
		return Request{}, ErrNoTag
	}
	args := tokens[1:]

	// The original rejects only a fourth argument; three fall through to the
	// arity checks below and report a missing-argument error instead.
	if len(args) > MaxArgs+1 {
		return Request{}, ErrTooManyArgs
	}

	switch op {
	case OpSet:
		if len(args) != 2 {
			return Request{}, ErrMissingArg
		}
		return Request{Op: OpSet, Key: args[0], Value: args[1]}, nil
	case OpGet:
		if len(args) != 1 {
			return Request{}, ErrMissingArg
		}
		return Request{Op: OpGet, Key: args[0]}, nil
	default:
		if len(args) != 1 {
			return Request{}, ErrMissingArg
		}
		return Request{Op: OpDel, Key: args[0]}, nil
	}
}
