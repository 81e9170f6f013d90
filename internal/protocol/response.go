package protocol

import (
	"fmt"
	"strconv"
	"time"
)

// Kind selects how a Response is rendered.
type Kind int

const (
	KindEntry Kind = iota
	KindSet
	KindDeleted
	KindError
)

// Response is the reply to one Request.
type Response struct {
	Kind  Kind
	Key   string
	Value string

	Previous    string
	HasPrevious bool

	Message string
}

// String renders the response as a single line without terminator.
func (r Response) String() string {
	switch r.Kind {
	case KindEntry:
		return fmt.Sprintf("%s => %s", r.Key, r.Value)
	case KindSet:
		prev := "(nil)"
		if r.HasPrevious {
			prev = strconv.Quote(r.Previous)
		}
		return fmt.Sprintf("%s: %s; previous: %s", r.Key, r.Value, prev)
	case KindDeleted:
		return "deleted: " + r.Key
	default:
		return "error: " + r.Message
	}
}

// IsError reports whether the response carries an error.
func (r Response) IsError() bool {
	return r.Kind == KindError
}

// Store is the subset of the cache the command handler needs.
type Store interface {
	Get(key string) ([]byte, bool)
	Swap(key string, value []byte, ttl time.Duration) ([]byte, bool)
	Delete(key string) bool
}

// Handle parses line and executes it against st.
func Handle(line string, st Store) Response {
	req, err := Parse(line)
	if err != nil {
		return Response{Kind: KindError, Message: err.Error()}
	}
	return Execute(req, st)
}

// Execute runs an already parsed request.
func Execute(req Request, st Store) Response {
	switch req.Op {
	case OpGet:
		value, ok := st.Get(req.Key)
		if !ok {
			return missing(req.Key)
		}
		return Response{Kind: KindEntry, Key: req.Key, Value: string(value)}

	case OpSet, OpSetEx:
		prev, ok := st.Swap(req.Key, []byte(req.Value), req.TTL)
		return Response{
			Kind:        KindSet,
			Key:         req.Key,
			Value:       req.Value,
			Previous:    string(prev),
			HasPrevious: ok,
		}

	case OpDel:
		if !st.Delete(req.Key) {
			return missing(req.Key)
		}
		return Response{Kind: KindDeleted, Key: req.Key}

	default:
		return Response{Kind: KindError, Message: unknownCommand(string(req.Op)).Error()}
	}
}

func missing(key string) Response {
	return Response{Kind: KindError, Message: "Missing key! " + key}
}
