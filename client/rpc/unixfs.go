package rpc

import (
	"bytes"
	"context"
	"errors"
	"io"
)

type UnixfsAPI HttpApi

type addEvent struct {
	Name string
	Hash string `json:",omitempty"`
	Size string `json:",omitempty"`
}

// Add stores data as a file and returns its content identifier.
func (api *UnixfsAPI) Add(ctx context.Context, data []byte) (string, error) {
	return api.AddReader(ctx, bytes.NewReader(data))
}

// AddReader is Add for content that should be streamed to the daemon rather
// than held in memory.
func (api *UnixfsAPI) AddReader(ctx context.Context, r io.Reader) (string, error) {
	var out addEvent
	err := api.core().Request("add").
		FileBody(r).
		Exec(ctx, &out)
	if err != nil {
		return "", err
	}
	if out.Hash == "" {
		return "", &DecodeError{Command: "add", Err: errors.New(`response has no "Hash" field`)}
	}
	return out.Hash, nil
}

// Cat returns the content of the file named by id.
func (api *UnixfsAPI) Cat(ctx context.Context, id string) ([]byte, error) {
	return readAllStream(api.CatStream(ctx, id))
}

// CatStream is Cat without buffering. The caller must close the reader.
func (api *UnixfsAPI) CatStream(ctx context.Context, id string) (io.ReadCloser, error) {
	return api.core().stream(ctx, api.core().Request("cat", id))
}

// Get returns the daemon's archive of the object named by id. The payload
// is passed through untouched; it is a tar stream for current daemons.
func (api *UnixfsAPI) Get(ctx context.Context, id string) ([]byte, error) {
	return readAllStream(api.GetStream(ctx, id))
}

// GetStream is Get without buffering. The caller must close the reader.
func (api *UnixfsAPI) GetStream(ctx context.Context, id string) (io.ReadCloser, error) {
	return api.core().stream(ctx, api.core().Request("get", id))
}

func (api *UnixfsAPI) core() *HttpApi {
	return (*HttpApi)(api)
}

// stream sends req and hands out the raw response body. Closing it early
// aborts the transfer instead of draining it.
func (api *HttpApi) stream(ctx context.Context, req RequestBuilder) (io.ReadCloser, error) {
	resp, err := req.Send(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Output, nil
}

func readAllStream(rc io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return b, nil
}
