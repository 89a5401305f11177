package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

type PinAPI HttpApi

// PinKind says why the daemon keeps a pinned object.
type PinKind int

const (
	PinDirect PinKind = iota
	PinIndirect
	PinRecursive
)

func (k PinKind) String() string {
	switch k {
	case PinDirect:
		return "direct"
	case PinIndirect:
		return "indirect"
	case PinRecursive:
		return "recursive"
	default:
		return fmt.Sprintf("PinKind(%d)", int(k))
	}
}

// ParsePinKind maps the daemon's spelling to a PinKind. Unknown strings
// yield PinDirect and false.
func ParsePinKind(s string) (PinKind, bool) {
	switch s {
	case "direct":
		return PinDirect, true
	case "indirect":
		return PinIndirect, true
	case "recursive":
		return PinRecursive, true
	default:
		return PinDirect, false
	}
}

// PinRecord is one entry of the daemon's pin set.
type PinRecord struct {
	Cid  string
	Kind PinKind
	// RawKind is the kind string as the daemon sent it. It differs from
	// Kind.String() when an unknown kind was coerced to PinDirect.
	RawKind string
}

type pinsOutput struct {
	Pins *[]string
}

// Add pins id and returns the identifiers the daemon reports as pinned.
func (api *PinAPI) Add(ctx context.Context, id string, recursive bool) ([]string, error) {
	return api.change(ctx, api.core().get("pin/add", id).
		Option("recursive", recursive).
		Option("progress", false))
}

// Rm unpins id and returns the identifiers the daemon reports as unpinned.
func (api *PinAPI) Rm(ctx context.Context, id string, recursive bool) ([]string, error) {
	return api.change(ctx, api.core().get("pin/rm", id).
		Option("recursive", recursive))
}

func (api *PinAPI) change(ctx context.Context, req RequestBuilder) ([]string, error) {
	var out pinsOutput
	if err := req.Exec(ctx, &out); err != nil {
		return nil, err
	}
	if out.Pins == nil {
		return nil, &DecodeError{Command: "pin", Err: errors.New(`response has no "Pins" field`)}
	}
	return *out.Pins, nil
}

// Ls lists every pin. Records come in the order the daemon wrote them, which
// carries no meaning.
func (api *PinAPI) Ls(ctx context.Context) ([]PinRecord, error) {
	const command = "pin/ls"

	resp, err := api.core().get(command).Send(ctx)
	if err != nil {
		return nil, err
	}
	body, err := resp.readAll()
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{Command: command, Err: errors.New("invalid json")}
	}

	keys := gjson.GetBytes(body, "Keys")
	if !keys.IsObject() {
		return nil, &DecodeError{Command: command, Err: errors.New(`response has no "Keys" object`)}
	}

	var pins []PinRecord
	var decodeErr error
	keys.ForEach(func(key, value gjson.Result) bool {
		typ := value.Get("Type")
		if typ.Type != gjson.String {
			decodeErr = fmt.Errorf(`pin %s has no "Type" string`, key.String())
			return false
		}

		kind, known := ParsePinKind(typ.Str)
		if !known {
			log.Warnw("unknown pin type, treating as direct", "cid", key.String(), "type", typ.Str)
		}
		pins = append(pins, PinRecord{Cid: key.String(), Kind: kind, RawKind: typ.Str})
		return true
	})
	if decodeErr != nil {
		return nil, &DecodeError{Command: command, Err: decodeErr}
	}
	return pins, nil
}

func (api *PinAPI) core() *HttpApi {
	return (*HttpApi)(api)
}
