package rpc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	mbase "github.com/multiformats/go-multibase"
)

// ErrKeyError is matched by the RemoteError returned when a reply lacks the
// field the caller asked for (name resolution without a Path).
var ErrKeyError = errors.New("key error")

// EndpointError reports a base URL or multiaddr the client cannot talk to.
type EndpointError struct {
	Endpoint string
	Err      error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("invalid api endpoint %q: %s", e.Endpoint, e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// TransportError wraps connection, DNS and I/O failures, including failures
// while reading a response body.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a failure reported by the daemon: a non-2xx status, an
// error trailer on a stream, or a reply missing its payload.
type RemoteError struct {
	Command    string
	StatusCode int
	Message    string
	Code       int

	err error
}

func (e *RemoteError) Error() string {
	var out string
	if e.Code != 0 {
		out = fmt.Sprintf("%d: ", e.Code)
	}
	return out + e.Message
}

// Unwrap exposes ipld.ErrNotFound for "not found" answers and ErrKeyError
// for replies without the requested key.
func (e *RemoteError) Unwrap() error {
	return e.err
}

// NotFound reports whether the daemon said the content is not available.
func (e *RemoteError) NotFound() bool {
	return e.err != nil && ipld.IsNotFound(e.err)
}

// DecodeError reports a response body that does not have the expected shape.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decoding response: %s", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func keyError(command string, statusCode int) *RemoteError {
	return &RemoteError{
		Command:    command,
		StatusCode: statusCode,
		Message:    ErrKeyError.Error(),
		err:        ErrKeyError,
	}
}

type prePostWrappedNotFoundError struct {
	pre  string
	post string

	wrapped ipld.ErrNotFound
}

func (e prePostWrappedNotFoundError) String() string {
	return e.Error()
}

func (e prePostWrappedNotFoundError) Error() string {
	return e.pre + e.wrapped.Error() + e.post
}

func (e prePostWrappedNotFoundError) Unwrap() error {
	return e.wrapped
}

// parseErrNotFound recognises the daemon's not-found messages and returns an
// error matching ipld.ErrNotFound for them, or nil.
func parseErrNotFound(msg string) error {
	if msg == "" {
		return nil
	}

	if err, handled := parseIPLDErrNotFound(msg); handled {
		return err
	}

	if err, handled := parseBlockstoreNotFound(msg); handled {
		return err
	}

	return nil
}

// Assume CIDs break on:
// - Whitespaces: " \t\n\r\v\f"
// - Semicolon: ";" this is to parse ipld.ErrNotFound wrapped in multierr
// - Double Quotes: "\"" this is for parsing %q and %#v formatting.
const cidBreakSet = " \t\n\r\v\f;\""

func parseIPLDErrNotFound(msg string) (error, bool) {
	// The pattern we search for is:
	const ipldErrNotFoundKey = "ipld: could not find " /*CID*/
	// We try to parse the CID, if it's invalid we give up and return a simple text error.
	// We also accept "node" in place of the CID because that means it's an Undefined CID.

	keyIndex := strings.Index(msg, ipldErrNotFoundKey)

	if keyIndex < 0 { // Unknown error
		return nil, false
	}

	cidStart := keyIndex + len(ipldErrNotFoundKey)

	msgPostKey := msg[cidStart:]
	var c cid.Cid
	var postIndex int
	if strings.HasPrefix(msgPostKey, "node") {
		// Fallback case
		c = cid.Undef
		postIndex = len("node")
	} else {
		postIndex = strings.IndexFunc(msgPostKey, func(r rune) bool {
			return strings.ContainsRune(cidBreakSet, r)
		})
		if postIndex < 0 {
			// no breakage meaning the string look like this something + "ipld: could not find bafy"
			postIndex = len(msgPostKey)
		}

		cidStr := msgPostKey[:postIndex]

		var err error
		c, err = cid.Decode(cidStr)
		if err != nil {
			// failed to decode CID give up
			return nil, false
		}

		// check that the CID is either a CIDv0 or a base32 multibase
		// because that what ipld.ErrNotFound.Error() -> cid.Cid.String() do currently
		if c.Version() != 0 {
			baseRune, _ := utf8.DecodeRuneInString(cidStr)
			if baseRune == utf8.RuneError || baseRune != mbase.Base32 {
				// not a multibase we expect, give up
				return nil, false
			}
		}
	}

	err := ipld.ErrNotFound{Cid: c}
	pre := msg[:keyIndex]
	post := msgPostKey[postIndex:]

	if len(pre) > 0 || len(post) > 0 {
		return prePostWrappedNotFoundError{
			pre:     pre,
			post:    post,
			wrapped: err,
		}, true
	}

	return err, true
}

// This is a simple error type that just return msg as Error().
// But that also match ipld.ErrNotFound when called with Is(err).
// That is needed to keep compatibility with code that use string.Contains(err.Error(), "blockstore: block not found")
// and code using ipld.ErrNotFound.
type blockstoreNotFoundMatchingIPLDErrNotFound struct {
	msg string
}

func (e blockstoreNotFoundMatchingIPLDErrNotFound) String() string {
	return e.Error()
}

func (e blockstoreNotFoundMatchingIPLDErrNotFound) Error() string {
	return e.msg
}

func (e blockstoreNotFoundMatchingIPLDErrNotFound) Is(err error) bool {
	_, ok := err.(ipld.ErrNotFound)
	return ok
}

func parseBlockstoreNotFound(msg string) (error, bool) {
	if !strings.Contains(msg, "blockstore: block not found") {
		return nil, false
	}

	return blockstoreNotFoundMatchingIPLDErrNotFound{msg: msg}, true
}
