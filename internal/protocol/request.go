package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyInput     = errors.New("received empty input")
	ErrUnknownCommand = errors.New("received unknown command")
	ErrBadRequest     = errors.New("bad request")
)

// MaxTTLMillis is the largest TTL, in milliseconds, that fits a time.Duration.
const MaxTTLMillis = math.MaxInt64 / int64(time.Millisecond)

// requestError carries the text sent back to clients and matches its
// sentinel with errors.Is.
type requestError struct {
	kind error
	msg  string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.kind }

// Op identifies a command.
type Op string

const (
	OpGet   Op = "GET"
	OpSet   Op = "SET"
	OpSetEx Op = "SETEX"
	OpDel   Op = "DEL"
)

// Request is a parsed command line.
type Request struct {
	Op    Op
	Key   string
	Value string
	// TTL is only set by SETEX.
	TTL time.Duration
}

// Parse reads one command:
//
//	GET <key>
//	SET <key> <value>
//	SETEX <key> <ttl-ms> <value>
//	DEL <key>
//
// A value is the rest of the line and may contain spaces.
// Command names are case-insensitive.
func Parse(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Request{}, ErrEmptyInput
	}

	cmd, rest, _ := strings.Cut(line, " ")
	op := Op(strings.ToUpper(cmd))

	switch op {
	case OpGet, OpDel:
		key := strings.TrimSpace(rest)
		if key == "" || strings.Contains(key, " ") {
			return Request{}, usage(op, "<key>")
		}
		return Request{Op: op, Key: key}, nil

	case OpSet:
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			return Request{}, usage(op, "<key> <value>")
		}
		return Request{Op: op, Key: key, Value: value}, nil

	case OpSetEx:
		parts := strings.SplitN(rest, " ", 3)
		if len(parts) != 3 || parts[0] == "" {
			return Request{}, usage(op, "<key> <ttl-ms> <value>")
		}
		ms, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || ms <= 0 || ms > MaxTTLMillis {
			return Request{}, &requestError{
				kind: ErrBadRequest,
				msg: fmt.Sprintf("Bad SETEX request. TTL must be between 1 and %d milliseconds, got %q",
					MaxTTLMillis, parts[1]),
			}
		}
		return Request{
			Op:    op,
			Key:   parts[0],
			Value: parts[2],
			TTL:   time.Duration(ms) * time.Millisecond,
		}, nil

	default:
		return Request{}, unknownCommand(cmd)
	}
}

// Single-line form of "Bad GET request.\nUsage: GET <key>".
func usage(op Op, args string) error {
	return &requestError{
		kind: ErrBadRequest,
		msg:  fmt.Sprintf("Bad %s request. Usage: %s %s", op, op, args),
	}
}

func unknownCommand(cmd string) error {
	return &requestError{
		kind: ErrUnknownCommand,
		msg:  "Received unknown command: " + cmd,
	}
}
