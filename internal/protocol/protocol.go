package protocol

import "errors"

// Op identifies a dictionary operation.
type Op int

const (
	OpNone Op = iota
	OpGet
	OpSet
	OpDel
)

// Operation tags as they appear on the wire. Case-sensitive.
const (
	TagGet = "GET"
	TagSet = "SET"
	TagDel = "DEL"
)

const (
	// MinFrameSize is the shortest parseable frame: a tag plus its terminator.
	MinFrameSize = 4
	// MaxArgs is the argument ceiling; only SET needs two.
	MaxArgs = 2
	// DefaultFrameSize is the inbound frame buffer size, tag and separators included.
	DefaultFrameSize = 128
)

// Request is a parsed frame.
type Request struct {
	Op    Op
	Key   string
	Value string
}

// Code is a wire error code, sent to the client as ERROR:<n>.
type Code int

const (
	CodeOS      Code = 1
	CodeNull    Code = 2
	CodeSize    Code = 3
	CodeBuffer  Code = 4
	CodeInvalid Code = 5
	CodeMissing Code = 6
	CodeTooMany Code = 7
)

// Error is a protocol-level failure carrying its wire code.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

var (
	ErrShortFrame  = &Error{Code: CodeSize, Msg: "frame shorter than minimum"}
	ErrNilFrame    = &Error{Code: CodeNull, Msg: "nil frame"}
	ErrNoTag       = &Error{Code: CodeInvalid, Msg: "no operation tag in frame"}
	ErrMissingArg  = &Error{Code: CodeMissing, Msg: "wrong argument count"}
	ErrTooManyArgs = &Error{Code: CodeTooMany, Msg: "too many arguments"}
)

// WireCode extracts the wire code from a protocol error.
func WireCode(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// Status classifies a reply.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

// Reply is one server response. Value is set only for successful GETs,
// Code only for StatusError.
type Reply struct {
	Status Status
	Value  []byte
	Code   Code
}
