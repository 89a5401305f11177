package rpc

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	ipfsapi "github.com/ipfs-shipyard/ipfsapi"
	"github.com/ipfs-shipyard/ipfsapi/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is a single RPC call, ready to be sent.
type Request struct {
	Ctx      context.Context
	ApiBase  string
	Command  string
	Method   string
	Args     []string
	Opts     map[string]string
	Body     io.Reader
	FileBody io.Reader
	Headers  http.Header
}

func NewRequest(ctx context.Context, url, command string, args ...string) *Request {
	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}

	return &Request{
		Ctx:     ctx,
		ApiBase: url + "/api/v0",
		Command: command,
		Method:  http.MethodPost,
		Args:    args,
		Opts:    map[string]string{},
		Headers: make(http.Header),
	}
}

// Send issues the request. A nil error with a non-nil Response.Error means the
// daemon answered with a failure status.
func (r *Request) Send(c *http.Client) (*Response, error) {
	ctx, span := tracing.Span(r.Ctx, "RPC", r.Command, trace.WithAttributes(attribute.String("method", r.Method)))
	defer span.End()

	body := r.Body
	var contentType string
	if r.FileBody != nil {
		body, contentType = multipartBody(r.FileBody)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.getURL(), body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok && r.FileBody != nil {
			closer.Close()
		}
		return nil, &EndpointError{Endpoint: r.ApiBase, Err: err}
	}

	req.Header.Set("User-Agent", ipfsapi.GetUserAgentVersion())
	// Add any headers that were supplied via the requestBuilder.
	for k, vs := range r.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Debugw("rpc request failed", "command", r.Command, "error", err, "elapsed", time.Since(start))
		return nil, &TransportError{Command: r.Command, Err: err}
	}
	span.SetAttributes(attribute.Int("status", resp.StatusCode))
	log.Debugw("rpc request", "command", r.Command, "status", resp.StatusCode, "elapsed", time.Since(start))

	nresp := new(Response)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		nresp.Error = remoteErrorFromResponse(r.Command, resp)
		span.SetStatus(codes.Error, nresp.Error.Error())

		// drain body and close
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nresp, nil
	}

	nresp.Output = &trailerReader{resp: resp, command: r.Command}
	return nresp, nil
}

func (r *Request) getURL() string {
	values := make(url.Values)
	for _, arg := range r.Args {
		values.Add("arg", arg)
	}
	for k, v := range r.Opts {
		values.Add(k, v)
	}

	u := fmt.Sprintf("%s/%s", r.ApiBase, r.Command)
	if len(values) == 0 {
		return u
	}
	return u + "?" + values.Encode()
}

// multipartBody streams data as a form with one part named "arg". The pipe is
// closed by the transport once the request is done with it, which also
// unblocks the writer on early failures.
func multipartBody(data io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="arg"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, data)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}
