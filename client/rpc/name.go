package rpc

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

type NameAPI HttpApi

// Resolve returns the path an IPNS name or DNSLink domain points to.
func (api *NameAPI) Resolve(ctx context.Context, name string) (string, error) {
	const command = "name/resolve"

	resp, err := api.core().get(command, name).Send(ctx)
	if err != nil {
		return "", err
	}
	body, err := resp.readAll()
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", &DecodeError{Command: command, Err: errors.New("invalid json")}
	}

	p := gjson.GetBytes(body, "Path")
	if p.Type != gjson.String {
		return "", keyError(command, http.StatusOK)
	}
	return p.Str, nil
}

// Publish points the node's IPNS name at id. The reply is not inspected: a
// 2xx answer is taken as success.
func (api *NameAPI) Publish(ctx context.Context, id string) error {
	return api.core().get("name/publish", id).Exec(ctx, nil)
}

func (api *NameAPI) core() *HttpApi {
	return (*HttpApi)(api)
}
