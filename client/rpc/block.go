package rpc

import (
	"bytes"
	"context"
	"errors"
	"io"
)

type BlockAPI HttpApi

type blockStat struct {
	Key  string
	Size int
}

// Put stores data as a single raw block and returns its identifier.
func (api *BlockAPI) Put(ctx context.Context, data []byte) (string, error) {
	return api.PutReader(ctx, bytes.NewReader(data))
}

func (api *BlockAPI) PutReader(ctx context.Context, r io.Reader) (string, error) {
	var out blockStat
	err := api.core().Request("block/put").
		FileBody(r).
		Exec(ctx, &out)
	if err != nil {
		return "", err
	}
	if out.Key == "" {
		return "", &DecodeError{Command: "block/put", Err: errors.New(`response has no "Key" field`)}
	}
	return out.Key, nil
}

// Get returns the raw bytes of the block named by id.
func (api *BlockAPI) Get(ctx context.Context, id string) ([]byte, error) {
	return readAllStream(api.GetStream(ctx, id))
}

func (api *BlockAPI) GetStream(ctx context.Context, id string) (io.ReadCloser, error) {
	return api.core().stream(ctx, api.core().get("block/get", id))
}

func (api *BlockAPI) core() *HttpApi {
	return (*HttpApi)(api)
}
