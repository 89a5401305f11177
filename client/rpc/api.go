package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blang/semver/v4"
	"github.com/ipfs-shipyard/ipfsapi/config"
	"github.com/ipfs-shipyard/ipfsapi/misc/fsutil"
	logging "github.com/ipfs/go-log/v2"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var log = logging.Logger("rpc")

// ErrApiNotFound if we fail to find a running daemon.
var ErrApiNotFound = errors.New("ipfs api address could not be found")

// HttpApi is a handle on a daemon's RPC endpoint. It is safe for concurrent
// use; Headers should be filled in before the first request.
type HttpApi struct {
	url     string
	httpcli http.Client
	Headers http.Header

	versionMu sync.Mutex
	version   *semver.Version
}

// NewLocalApi tries to construct new HttpApi instance communicating with local
// IPFS daemon
//
// Daemon api address is pulled from the $IPFS_PATH/api file.
// If $IPFS_PATH env var is not present, it defaults to ~/.ipfs.
func NewLocalApi() (*HttpApi, error) {
	baseDir, err := config.PathRoot()
	if err != nil {
		return nil, err
	}

	return NewPathApi(baseDir)
}

// NewPathApi constructs new HttpApi by pulling api address from specified
// ipfspath. Api file should be located at $ipfspath/api.
func NewPathApi(ipfspath string) (*HttpApi, error) {
	a, err := ApiAddr(ipfspath)
	if err != nil {
		if os.IsNotExist(err) {
			err = ErrApiNotFound
		}
		return nil, err
	}
	return NewApi(a)
}

// ApiAddr reads api file in specified ipfs path.
func ApiAddr(ipfspath string) (ma.Multiaddr, error) {
	baseDir, err := fsutil.ExpandHome(ipfspath)
	if err != nil {
		return nil, err
	}

	apiFile := filepath.Join(baseDir, config.DefaultApiFile)

	api, err := os.ReadFile(apiFile)
	if err != nil {
		return nil, err
	}

	a, err := ma.NewMultiaddr(strings.TrimSpace(string(api)))
	if err != nil {
		return nil, &EndpointError{Endpoint: apiFile, Err: err}
	}
	return a, nil
}

// NewApi constructs HttpApi with specified endpoint.
func NewApi(a ma.Multiaddr) (*HttpApi, error) {
	transport := newTransport(false)

	endpoint, err := dialEndpoint(a, transport)
	if err != nil {
		return nil, err
	}

	return NewURLApiWithClient(endpoint, &http.Client{
		Transport: otelhttp.NewTransport(transport),
	})
}

// NewApiWithClient constructs HttpApi with specified endpoint and custom http client.
func NewApiWithClient(a ma.Multiaddr, c *http.Client) (*HttpApi, error) {
	endpoint, err := multiaddrURL(a)
	if err != nil {
		return nil, err
	}
	return NewURLApiWithClient(endpoint, c)
}

// NewURLApi constructs HttpApi for a base URL such as http://127.0.0.1:5001.
func NewURLApi(rawURL string) (*HttpApi, error) {
	return NewURLApiWithClient(rawURL, &http.Client{
		Transport: otelhttp.NewTransport(newTransport(false)),
	})
}

// NewURLApiWithClient is NewURLApi with a caller-provided http client. The
// client is copied; redirects are never followed on the copy.
func NewURLApiWithClient(rawURL string, c *http.Client) (*HttpApi, error) {
	base, err := parseEndpoint(rawURL)
	if err != nil {
		return nil, err
	}

	api := &HttpApi{
		url:     base,
		httpcli: *c,
		Headers: make(http.Header),
	}

	// A redirect answer is handed back as-is and surfaces as a RemoteError.
	api.httpcli.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return api, nil
}

// NewApiFromAddr accepts either address form users type: a multiaddr
// (leading slash) or a URL.
func NewApiFromAddr(addr string) (*HttpApi, error) {
	if strings.HasPrefix(addr, "/") {
		a, err := ma.NewMultiaddr(addr)
		if err != nil {
			return nil, &EndpointError{Endpoint: addr, Err: err}
		}
		return NewApi(a)
	}
	return NewURLApi(addr)
}

// URL returns the base URL requests are sent to.
func (api *HttpApi) URL() string {
	return api.url
}

func (api *HttpApi) Request(command string, args ...string) RequestBuilder {
	headers := make(http.Header, len(api.Headers))
	for k, vs := range api.Headers {
		headers[k] = append([]string(nil), vs...)
	}
	return &requestBuilder{
		command: command,
		args:    args,
		shell:   api,
		headers: headers,
	}
}

func (api *HttpApi) Unixfs() *UnixfsAPI {
	return (*UnixfsAPI)(api)
}

func (api *HttpApi) Block() *BlockAPI {
	return (*BlockAPI)(api)
}

func (api *HttpApi) Pin() *PinAPI {
	return (*PinAPI)(api)
}

func (api *HttpApi) Name() *NameAPI {
	return (*NameAPI)(api)
}

func newTransport(disableKeepAlives bool) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyFromEnvironment
	tr.DisableKeepAlives = disableKeepAlives
	return tr
}

func parseEndpoint(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &EndpointError{Endpoint: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &EndpointError{Endpoint: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return "", &EndpointError{Endpoint: rawURL, Err: errors.New("missing host")}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", &EndpointError{Endpoint: rawURL, Err: errors.New("query and fragment are not allowed")}
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.EscapedPath(), "/"), nil
}

// dialEndpoint turns a multiaddr into a base URL, pointing the transport at
// the socket for unix addresses.
func dialEndpoint(a ma.Multiaddr, transport *http.Transport) (string, error) {
	network, address, err := manet.DialArgs(a)
	if err != nil {
		return "", &EndpointError{Endpoint: a.String(), Err: err}
	}
	if network == "unix" {
		transport.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", address)
		}
		// This will create an API client which
		// makes requests to `http://unix`.
		return "http://unix", nil
	}
	return multiaddrURL(a)
}

func multiaddrURL(a ma.Multiaddr) (string, error) {
	network, host, err := manet.DialArgs(a)
	if err != nil {
		return "", &EndpointError{Endpoint: a.String(), Err: err}
	}
	if network == "unix" {
		return "", &EndpointError{Endpoint: a.String(), Err: errors.New("unix sockets need a transport dialing the socket, use NewApi")}
	}

	if a, err := ma.NewMultiaddr(host); err == nil {
		_, h, err := manet.DialArgs(a)
		if err == nil {
			host = h
		}
	}

	proto := "http://"

	// By default, DialArgs is going to provide details suitable for connecting
	// a socket to, but not really suitable for making an informed choice of http
	// protocol.  For multiaddresses specifying tls and/or https we want to make
	// a https request instead of a http request.
	for _, p := range a.Protocols() {
		if p.Code == ma.P_HTTPS || p.Code == ma.P_TLS {
			proto = "https://"
			break
		}
	}

	return proto + host, nil
}
