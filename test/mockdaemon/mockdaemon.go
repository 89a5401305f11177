// Package mockdaemon serves the daemon's RPC commands from memory so client
// code can be tested without an ipfs binary. Content is imported and read with
// the same UnixFS code the daemon uses, so identifiers match a real node for
// default settings.
package mockdaemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ipfs/boxo/blockservice"
	"github.com/ipfs/boxo/blockstore"
	chunker "github.com/ipfs/boxo/chunker"
	"github.com/ipfs/boxo/exchange/offline"
	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/ipld/merkledag"
	unixfile "github.com/ipfs/boxo/ipld/unixfs/file"
	"github.com/ipfs/boxo/ipld/unixfs/importer"
	uio "github.com/ipfs/boxo/ipld/unixfs/io"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	ipld "github.com/ipfs/go-ipld-format"
	logging "github.com/ipfs/go-log/v2"
	"github.com/julienschmidt/httprouter"
	mh "github.com/multiformats/go-multihash"
)

var log = logging.Logger("mockdaemon")

// SelfName is the IPNS name the daemon publishes under.
const SelfName = "k51qzi5uqu5dlvj2baxnqndepeb86cbk3ng7n3i46uzyxzyqj2xjonzllnv0v8"

// Version is what the version command reports.
var Version = map[string]string{
	"Version": "0.32.1",
	"Commit":  "904f9b0",
	"Repo":    "16",
	"System":  "amd64/linux",
	"Golang":  "go1.23.3",
}

// Call is what the daemon saw of one request.
type Call struct {
	Method   string
	Query    url.Values
	Header   http.Header
	PartName string // form name of the multipart part, if any
}

type Daemon struct {
	Server *httptest.Server

	bstore blockstore.Blockstore
	dag    ipld.DAGService

	mu        sync.Mutex
	pins      map[cid.Cid]string
	names     map[string]string
	calls     map[string][]Call
	overrides map[string]http.HandlerFunc
	shutdown  bool
}

// New starts a daemon that is closed when t finishes.
func New(t testing.TB) *Daemon {
	d := NewUnstarted()
	d.Server.Start()
	t.Cleanup(d.Close)
	return d
}

// NewUnstarted builds a daemon whose Server has not been started yet.
func NewUnstarted() *Daemon {
	bs := blockstore.NewBlockstore(dssync.MutexWrap(datastore.NewMapDatastore()))
	d := &Daemon{
		bstore:    bs,
		dag:       merkledag.NewDAGService(blockservice.New(bs, offline.Exchange(bs))),
		pins:      make(map[cid.Cid]string),
		names:     make(map[string]string),
		calls:     make(map[string][]Call),
		overrides: make(map[string]http.HandlerFunc),
	}

	router := httprouter.New()
	for command, h := range map[string]http.HandlerFunc{
		"add":          d.add,
		"cat":          d.cat,
		"get":          d.get,
		"block/put":    d.blockPut,
		"block/get":    d.blockGet,
		"pin/add":      d.pinAdd,
		"pin/rm":       d.pinRm,
		"pin/ls":       d.pinLs,
		"name/publish": d.namePublish,
		"name/resolve": d.nameResolve,
		"version":      d.version,
		"shutdown":     d.stop,
	} {
		handle := d.handle(command, h)
		router.Handle(http.MethodGet, "/api/v0/"+command, handle)
		router.Handle(http.MethodPost, "/api/v0/"+command, handle)
	}

	d.Server = httptest.NewUnstartedServer(router)
	return d
}

func (d *Daemon) URL() string {
	return d.Server.URL
}

func (d *Daemon) Close() {
	d.Server.Close()
}

// Override replaces the handler of command, for answers a healthy daemon
// would not give.
func (d *Daemon) Override(command string, h http.HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overrides[command] = h
}

// Calls returns the requests received for command, oldest first.
func (d *Daemon) Calls(command string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls[command]...)
}

// IsShutdown reports whether the shutdown command was received.
func (d *Daemon) IsShutdown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown
}

// SetName binds an IPNS name to a path without going through publish.
func (d *Daemon) SetName(name, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[name] = path
}

func (d *Daemon) handle(command string, h http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		call := Call{Method: r.Method, Query: r.URL.Query(), Header: r.Header.Clone()}

		d.mu.Lock()
		override := d.overrides[command]
		d.mu.Unlock()

		if override != nil {
			d.record(command, call)
			override(w, r)
			return
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			data, name, err := readPart(r)
			call.PartName = name
			d.record(command, call)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(data))
			h(w, r)
			return
		}

		d.record(command, call)
		h(w, r)
	}
}

func (d *Daemon) record(command string, call Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[command] = append(d.calls[command], call)
}

// readPart returns the content and form name of the first multipart part.
func readPart(r *http.Request) ([]byte, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", err
	}
	part, err := mr.NextPart()
	if err != nil {
		return nil, "", fmt.Errorf("file argument was nil: %w", err)
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	return data, part.FormName(), err
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding response: %s", err)
	}
}

// writeError answers the way the daemon's command layer does.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"Message": msg,
		"Code":    0,
		"Type":    "error",
	})
}

func argCid(w http.ResponseWriter, r *http.Request) (cid.Cid, bool) {
	arg := strings.TrimPrefix(r.URL.Query().Get("arg"), "/ipfs/")
	if arg == "" {
		writeError(w, http.StatusBadRequest, "argument \"ipfs-path\" is required")
		return cid.Undef, false
	}
	c, err := cid.Decode(arg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("invalid path %q: %s", arg, err))
		return cid.Undef, false
	}
	return c, true
}

func (d *Daemon) add(w http.ResponseWriter, r *http.Request) {
	nd, err := importer.BuildDagFromReader(d.dag, chunker.DefaultSplitter(r.Body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	size, err := nd.Size()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d.mu.Lock()
	d.pins[nd.Cid()] = "recursive"
	d.mu.Unlock()

	writeJSON(w, map[string]string{
		"Name": nd.Cid().String(),
		"Hash": nd.Cid().String(),
		"Size": strconv.FormatUint(size, 10),
	})
}

func (d *Daemon) node(ctx context.Context, w http.ResponseWriter, r *http.Request) (ipld.Node, bool) {
	c, ok := argCid(w, r)
	if !ok {
		return nil, false
	}
	if !d.has(ctx, w, c) {
		return nil, false
	}
	nd, err := d.dag.Get(ctx, c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return nd, true
}

// has answers with the daemon's not-found message when c is not stored.
func (d *Daemon) has(ctx context.Context, w http.ResponseWriter, c cid.Cid) bool {
	has, err := d.bstore.Has(ctx, c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if !has {
		writeError(w, http.StatusInternalServerError, ipld.ErrNotFound{Cid: c}.Error())
		return false
	}
	return true
}

func (d *Daemon) cat(w http.ResponseWriter, r *http.Request) {
	nd, ok := d.node(r.Context(), w, r)
	if !ok {
		return
	}
	rd, err := uio.NewDagReader(r.Context(), nd, d.dag)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("X-Content-Length", strconv.FormatUint(rd.Size(), 10))
	if _, err := io.Copy(w, rd); err != nil {
		log.Errorf("cat %s: %s", nd.Cid(), err)
	}
}

func (d *Daemon) get(w http.ResponseWriter, r *http.Request) {
	nd, ok := d.node(r.Context(), w, r)
	if !ok {
		return
	}
	f, err := unixfile.NewUnixfsFile(r.Context(), d.dag, nd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/x-tar")
	tw, err := files.NewTarWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := tw.WriteFile(f, nd.Cid().String()); err != nil {
		log.Errorf("get %s: %s", nd.Cid(), err)
	}
	if err := tw.Close(); err != nil {
		log.Errorf("get %s: %s", nd.Cid(), err)
	}
}

func (d *Daemon) blockPut(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	blk, err := blocks.NewBlockWithCid(data, cid.NewCidV0(hash))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := d.bstore.Put(r.Context(), blk); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"Key":  blk.Cid().String(),
		"Size": len(data),
	})
}

func (d *Daemon) blockGet(w http.ResponseWriter, r *http.Request) {
	c, ok := argCid(w, r)
	if !ok {
		return
	}
	if !d.has(r.Context(), w, c) {
		return
	}
	blk, err := d.bstore.Get(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write(blk.RawData())
}

func (d *Daemon) pinAdd(w http.ResponseWriter, r *http.Request) {
	c, ok := argCid(w, r)
	if !ok {
		return
	}
	if !d.has(r.Context(), w, c) {
		return
	}

	recursive := r.URL.Query().Get("recursive") != "false"

	d.mu.Lock()
	if !recursive && d.pins[c] == "recursive" {
		d.mu.Unlock()
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("pin: %s already pinned recursively", c))
		return
	}
	if recursive {
		d.pins[c] = "recursive"
		d.markIndirect(r.Context(), c)
	} else {
		d.pins[c] = "direct"
	}
	d.mu.Unlock()

	writeJSON(w, map[string][]string{"Pins": {c.String()}})
}

// markIndirect pins everything below c indirectly. Blocks that do not decode
// as dag nodes have no children.
func (d *Daemon) markIndirect(ctx context.Context, c cid.Cid) {
	nd, err := d.dag.Get(ctx, c)
	if err != nil {
		return
	}
	for _, l := range nd.Links() {
		if _, pinned := d.pins[l.Cid]; !pinned {
			d.pins[l.Cid] = "indirect"
		}
		d.markIndirect(ctx, l.Cid)
	}
}

func (d *Daemon) pinRm(w http.ResponseWriter, r *http.Request) {
	c, ok := argCid(w, r)
	if !ok {
		return
	}

	d.mu.Lock()
	kind, pinned := d.pins[c]
	if !pinned || kind == "indirect" {
		d.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "not pinned or pinned indirectly")
		return
	}
	delete(d.pins, c)
	d.mu.Unlock()

	writeJSON(w, map[string][]string{"Pins": {c.String()}})
}

func (d *Daemon) pinLs(w http.ResponseWriter, r *http.Request) {
	type pinType struct {
		Type string
	}

	d.mu.Lock()
	keys := make(map[string]pinType, len(d.pins))
	for c, kind := range d.pins {
		keys[c.String()] = pinType{Type: kind}
	}
	d.mu.Unlock()

	writeJSON(w, map[string]interface{}{"Keys": keys})
}

func (d *Daemon) namePublish(w http.ResponseWriter, r *http.Request) {
	c, ok := argCid(w, r)
	if !ok {
		return
	}
	value := "/ipfs/" + c.String()
	d.SetName(SelfName, value)
	writeJSON(w, map[string]string{"Name": SelfName, "Value": value})
}

func (d *Daemon) nameResolve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Query().Get("arg"), "/ipns/")

	d.mu.Lock()
	p, ok := d.names[name]
	d.mu.Unlock()

	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("could not resolve name %q", name))
		return
	}
	writeJSON(w, map[string]string{"Path": p})
}

func (d *Daemon) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Version)
}

func (d *Daemon) stop(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.shutdown = true
	d.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}
