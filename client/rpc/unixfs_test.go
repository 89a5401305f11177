package rpc

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCatRoundTrip(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	ctx := context.Background()

	for name, payload := range map[string][]byte{
		"empty":       {},
		"hello":       []byte("Hello world"),
		"binary":      {0, 1, 2, 0xff, 0xfe, '\n', 0},
		"multi-chunk": bytes.Repeat([]byte("0123456789abcdef"), 40000),
	} {
		t.Run(name, func(t *testing.T) {
			id, err := api.Unixfs().Add(ctx, payload)
			require.NoError(t, err)

			got, err := api.Unixfs().Cat(ctx, id)
			require.NoError(t, err)
			require.Equal(t, len(payload), len(got))
			require.True(t, bytes.Equal(payload, got))
		})
	}
}

func TestAddIsDeterministic(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	ctx := context.Background()

	first, err := api.Unixfs().Add(ctx, []byte("Hello world"))
	require.NoError(t, err)
	second, err := api.Unixfs().AddReader(ctx, bytes.NewBufferString("Hello world"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := api.Unixfs().Add(ctx, []byte("Hello world\n"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	c, err := cid.Decode(first)
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.Version())
}

func TestAddSendsSingleArgPart(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	_, err := api.Unixfs().Add(context.Background(), []byte("payload"))
	require.NoError(t, err)

	calls := d.Calls("add")
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "arg", calls[0].PartName)
}

func TestAddWithoutHash(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("add", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Name":"file"}`))
	})

	_, err := api.Unixfs().Add(context.Background(), []byte("x"))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "add", de.Command)
}

func TestAddNotJSON(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("add", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy says hi</html>"))
	})

	_, err := api.Unixfs().Add(context.Background(), []byte("x"))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestCatNotFound(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	missing := "QmUNLLsPACCz1vLxQVkXqqLX5R1X345qqfHbsf67hvA3Nn"

	_, err := api.Unixfs().Cat(context.Background(), missing)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.NotFound())
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
	assert.True(t, ipld.IsNotFound(err))
	assert.True(t, errors.Is(err, ipld.ErrNotFound{}))

	calls := d.Calls("cat")
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, missing, calls[0].Query.Get("arg"))
}

func TestCatStreamEarlyClose(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte("a"), 1<<20)

	id, err := api.Unixfs().Add(ctx, payload)
	require.NoError(t, err)

	rc, err := api.Unixfs().CatStream(ctx, id)
	require.NoError(t, err)
	head := make([]byte, 10)
	_, err = io.ReadFull(rc, head)
	require.NoError(t, err)
	assert.Equal(t, payload[:10], head)
	require.NoError(t, rc.Close())
}

func TestCatStreamErrorTrailer(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("cat", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Trailer", "X-Stream-Error")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("partial"))
		w.Header().Set("X-Stream-Error", "context deadline exceeded")
	})

	got, err := api.Unixfs().Cat(context.Background(), "QmUNLLsPACCz1vLxQVkXqqLX5R1X345qqfHbsf67hvA3Nn")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "context deadline exceeded", re.Message)
	assert.Equal(t, "cat", re.Command)
	assert.Nil(t, got)
}

func TestGetReturnsArchive(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	ctx := context.Background()
	payload := []byte("archived content")

	id, err := api.Unixfs().Add(ctx, payload)
	require.NoError(t, err)

	archive, err := api.Unixfs().Get(ctx, id)
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(archive))
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, id, hdr.Name)
	body, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, payload, body)

	calls := d.Calls("get")
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
}
