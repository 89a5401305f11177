package rpc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findPin(pins []PinRecord, id string) (PinRecord, bool) {
	for _, p := range pins {
		if p.Cid == id {
			return p, true
		}
	}
	return PinRecord{}, false
}

func TestPinAddLsRm(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	ctx := context.Background()

	direct, err := api.Block().Put(ctx, []byte("direct pin"))
	require.NoError(t, err)
	recursive, err := api.Block().Put(ctx, []byte("recursive pin"))
	require.NoError(t, err)

	pinned, err := api.Pin().Add(ctx, direct, false)
	require.NoError(t, err)
	assert.Equal(t, []string{direct}, pinned)

	pinned, err = api.Pin().Add(ctx, recursive, true)
	require.NoError(t, err)
	assert.Equal(t, []string{recursive}, pinned)

	pins, err := api.Pin().Ls(ctx)
	require.NoError(t, err)

	p, ok := findPin(pins, direct)
	require.True(t, ok)
	assert.Equal(t, PinDirect, p.Kind)
	assert.Equal(t, "direct", p.RawKind)

	p, ok = findPin(pins, recursive)
	require.True(t, ok)
	assert.Equal(t, PinRecursive, p.Kind)

	unpinned, err := api.Pin().Rm(ctx, direct, true)
	require.NoError(t, err)
	assert.Equal(t, []string{direct}, unpinned)

	pins, err = api.Pin().Ls(ctx)
	require.NoError(t, err)
	_, ok = findPin(pins, direct)
	assert.False(t, ok)
	_, ok = findPin(pins, recursive)
	assert.True(t, ok)

	adds := d.Calls("pin/add")
	require.Len(t, adds, 2)
	assert.Equal(t, http.MethodGet, adds[0].Method)
	assert.Equal(t, direct, adds[0].Query.Get("arg"))
	assert.Equal(t, "false", adds[0].Query.Get("recursive"))
	assert.Equal(t, "false", adds[0].Query.Get("progress"))
	assert.Equal(t, "true", adds[1].Query.Get("recursive"))

	rms := d.Calls("pin/rm")
	require.Len(t, rms, 1)
	assert.Equal(t, http.MethodGet, rms[0].Method)
	assert.Equal(t, "true", rms[0].Query.Get("recursive"))
	assert.Empty(t, rms[0].Query.Get("progress"))
}

func TestAddedContentIsPinnedRecursively(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	ctx := context.Background()

	id, err := api.Unixfs().Add(ctx, []byte("kept by the daemon"))
	require.NoError(t, err)

	pins, err := api.Pin().Ls(ctx)
	require.NoError(t, err)
	p, ok := findPin(pins, id)
	require.True(t, ok)
	assert.Equal(t, PinRecursive, p.Kind)
}

func TestPinRmNotPinned(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	id, err := api.Block().Put(context.Background(), []byte("never pinned"))
	require.NoError(t, err)

	_, err = api.Pin().Rm(context.Background(), id, true)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "not pinned or pinned indirectly", re.Message)
	assert.False(t, re.NotFound())
}

func TestPinAddWithoutPins(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("pin/add", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Progress": 1}`))
	})

	_, err := api.Pin().Add(context.Background(), "QmV8cfu6n4NT5xRr2AHdKxFMTZEJrA44qgrBCr739BN9Wb", false)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestPinLsUnknownKindFallsBackToDirect(t *testing.T) {
	t.Parallel()

	api, d := newTestApi(t)
	d.Override("pin/ls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Keys":{
			"QmRecursive":{"Type":"recursive"},
			"QmIndirect":{"Type":"indirect"},
			"QmFuture":{"Type":"pinned-by-policy"}
		}}`))
	})

	pins, err := api.Pin().Ls(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []PinRecord{
		{Cid: "QmRecursive", Kind: PinRecursive, RawKind: "recursive"},
		{Cid: "QmIndirect", Kind: PinIndirect, RawKind: "indirect"},
		{Cid: "QmFuture", Kind: PinDirect, RawKind: "pinned-by-policy"},
	}, pins)
}

func TestPinLsEmpty(t *testing.T) {
	t.Parallel()

	api, _ := newTestApi(t)
	pins, err := api.Pin().Ls(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pins)
}

func TestPinLsDecodeErrors(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"not json":        `{"Keys":`,
		"no keys":         `{}`,
		"keys not object": `{"Keys":["QmA"]}`,
		"no type":         `{"Keys":{"QmA":{"Type":"direct"},"QmB":{}}}`,
		"type not string": `{"Keys":{"QmA":{"Type":1}}}`,
		"entry not obj":   `{"Keys":{"QmA":"direct"}}`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			api, d := newTestApi(t)
			d.Override("pin/ls", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			_, err := api.Pin().Ls(context.Background())
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "pin/ls", de.Command)
		})
	}
}

func TestPinKindString(t *testing.T) {
	t.Parallel()

	for _, kind := range []PinKind{PinDirect, PinIndirect, PinRecursive} {
		parsed, ok := ParsePinKind(kind.String())
		assert.True(t, ok)
		assert.Equal(t, kind, parsed)
	}
	assert.Equal(t, "PinKind(7)", PinKind(7).String())
}
