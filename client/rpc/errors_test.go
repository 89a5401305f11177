package rpc

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloWorldCid = "QmV8cfu6n4NT5xRr2AHdKxFMTZEJrA44qgrBCr739BN9Wb"

// operations calls every command of the client once and returns its error.
var operations = map[string]func(context.Context, *HttpApi) error{
	"add": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Unixfs().Add(ctx, []byte("x"))
		return err
	},
	"cat": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Unixfs().Cat(ctx, helloWorldCid)
		return err
	},
	"get": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Unixfs().Get(ctx, helloWorldCid)
		return err
	},
	"block/put": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Block().Put(ctx, []byte("x"))
		return err
	},
	"block/get": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Block().Get(ctx, helloWorldCid)
		return err
	},
	"pin/add": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Pin().Add(ctx, helloWorldCid, true)
		return err
	},
	"pin/rm": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Pin().Rm(ctx, helloWorldCid, true)
		return err
	},
	"pin/ls": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Pin().Ls(ctx)
		return err
	},
	"name/publish": func(ctx context.Context, api *HttpApi) error {
		return api.Name().Publish(ctx, helloWorldCid)
	},
	"name/resolve": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Name().Resolve(ctx, "k51")
		return err
	},
	"version": func(ctx context.Context, api *HttpApi) error {
		_, err := api.Version(ctx)
		return err
	},
	"shutdown": func(ctx context.Context, api *HttpApi) error {
		return api.Shutdown(ctx)
	},
}

func TestFailureStatusIsRemoteError(t *testing.T) {
	t.Parallel()

	type answer struct {
		status      int
		contentType string
		body        string
		header      map[string]string

		message string
		code    int
	}

	answers := map[string]answer{
		"json error": {
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			body:        `{"Message":"something broke","Code":2,"Type":"error"}`,
			message:     "something broke",
			code:        2,
		},
		"plain text": {
			status:      http.StatusBadRequest,
			contentType: "text/plain; charset=utf-8",
			body:        "bad argument\n",
			message:     "bad argument",
		},
		"unknown command": {
			status:  http.StatusNotFound,
			message: "command not found",
		},
		"not found page": {
			status:      http.StatusNotFound,
			contentType: "text/plain; charset=utf-8",
			body:        "404 page not found\n",
			message:     "404 page not found",
		},
		"redirect": {
			status:  http.StatusFound,
			header:  map[string]string{"Location": "http://elsewhere.example.com/api/v0/"},
			message: `unexpected redirect to "http://elsewhere.example.com/api/v0/"`,
		},
		"empty body": {
			status:  http.StatusServiceUnavailable,
			message: "Service Unavailable",
		},
	}

	for command, op := range operations {
		for name, a := range answers {
			command, op, a := command, op, a
			t.Run(command+"/"+name, func(t *testing.T) {
				t.Parallel()

				api, d := newTestApi(t)
				d.Override(command, func(w http.ResponseWriter, r *http.Request) {
					for k, v := range a.header {
						w.Header().Set(k, v)
					}
					if a.contentType != "" {
						w.Header().Set("Content-Type", a.contentType)
					}
					w.WriteHeader(a.status)
					_, _ = w.Write([]byte(a.body))
				})

				err := op(context.Background(), api)
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, command, re.Command)
				assert.Equal(t, a.status, re.StatusCode)
				assert.Equal(t, a.message, re.Message)
				assert.Equal(t, a.code, re.Code)
				assert.False(t, re.NotFound())
			})
		}
	}
}

func TestUnreachableDaemonIsTransportError(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Close()

	for command, op := range operations {
		err := op(context.Background(), api)
		var te *TransportError
		require.ErrorAs(t, err, &te, command)
		assert.Equal(t, command, te.Command)
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for command, op := range operations {
		err := op(ctx, api)
		require.ErrorIs(t, err, context.Canceled, command)
	}
}

func TestRemoteErrorString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", (&RemoteError{Message: "boom"}).Error())
	assert.Equal(t, "1: boom", (&RemoteError{Message: "boom", Code: 1}).Error())
}

func TestParseErrNotFound(t *testing.T) {
	t.Parallel()

	c, err := cid.Decode("bafkqaaa")
	require.NoError(t, err)
	v0, err := cid.Decode(helloWorldCid)
	require.NoError(t, err)

	for _, tc := range []struct {
		msg  string
		want error
	}{
		{msg: "", want: nil},
		{msg: "something unrelated", want: nil},
		{msg: "ipld: could not find node", want: ipld.ErrNotFound{Cid: cid.Undef}},
		{msg: "ipld: could not find " + c.String(), want: ipld.ErrNotFound{Cid: c}},
		{msg: "ipld: could not find " + v0.String(), want: ipld.ErrNotFound{Cid: v0}},
		{
			msg:  "failed to fetch: ipld: could not find " + v0.String() + "; retry later",
			want: prePostWrappedNotFoundError{pre: "failed to fetch: ", post: "; retry later", wrapped: ipld.ErrNotFound{Cid: v0}},
		},
		{msg: "ipld: could not find zNotACid", want: nil},
		{msg: "blockstore: block not found", want: blockstoreNotFoundMatchingIPLDErrNotFound{msg: "blockstore: block not found"}},
	} {
		got := parseErrNotFound(tc.msg)
		assert.Equal(t, tc.want, got, tc.msg)
		if tc.want != nil {
			assert.True(t, ipld.IsNotFound(got), tc.msg)
			assert.Equal(t, tc.msg, got.Error())
		}
	}
}

func TestRemoteErrorNotFound(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("block/get", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message":"blockstore: block not found","Code":0,"Type":"error"}`))
	})

	_, err := api.Block().Get(context.Background(), helloWorldCid)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.NotFound())
	assert.True(t, errors.Is(err, ipld.ErrNotFound{}))
}
