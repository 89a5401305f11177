package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/multierr"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 1 << 20

type trailerReader struct {
	resp    *http.Response
	command string
}

func (r *trailerReader) Read(b []byte) (int, error) {
	n, err := r.resp.Body.Read(b)
	if err != nil {
		if e := r.resp.Trailer.Get("X-Stream-Error"); e != "" {
			return n, &RemoteError{Command: r.command, StatusCode: r.resp.StatusCode, Message: e}
		}
		if err != io.EOF {
			err = &TransportError{Command: r.command, Err: err}
		}
	}
	return n, err
}

func (r *trailerReader) Close() error {
	return r.resp.Body.Close()
}

type Response struct {
	Output io.ReadCloser
	Error  *RemoteError
}

func (r *Response) Close() error {
	if r.Output != nil {
		// drain output (response body)
		_, err1 := io.Copy(io.Discard, r.Output)
		err2 := r.Output.Close()
		return multierr.Combine(err1, err2)
	}
	return nil
}

// Cancel aborts running request (without draining request body)
func (r *Response) Cancel() error {
	if r.Output != nil {
		return r.Output.Close()
	}

	return nil
}

// decode reads request body and decodes it as json
func (r *Response) decode(dec interface{}) error {
	if r.Error != nil {
		return r.Error
	}
	defer r.Close()

	if err := json.NewDecoder(r.Output).Decode(dec); err != nil {
		return r.decodeError(err)
	}
	return nil
}

// readAll buffers the whole body.
func (r *Response) readAll() ([]byte, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	defer r.Close()
	return io.ReadAll(r.Output)
}

func (r *Response) decodeError(err error) error {
	var te *TransportError
	var re *RemoteError
	if errors.As(err, &te) || errors.As(err, &re) {
		return err
	}
	command := ""
	if tr, ok := r.Output.(*trailerReader); ok {
		command = tr.command
	}
	return &DecodeError{Command: command, Err: err}
}

// daemonError is the JSON body the daemon sends along a failure status.
type daemonError struct {
	Message string
	Code    int
	Type    string
}

func remoteErrorFromResponse(command string, resp *http.Response) *RemoteError {
	e := &RemoteError{
		Command:    command,
		StatusCode: resp.StatusCode,
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	out, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		log.Warnf("response (%d) read error: %s", resp.StatusCode, err)
	}

	switch {
	case contentType == "application/json":
		var de daemonError
		if err := json.Unmarshal(out, &de); err != nil {
			log.Warnf("response (%d) unmarshal error: %s", resp.StatusCode, err)
			e.Message = strings.TrimSpace(string(out))
		} else {
			e.Message = de.Message
			e.Code = de.Code
		}
	case resp.StatusCode == http.StatusNotFound && len(out) == 0:
		e.Message = "command not found"
	case resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest:
		e.Message = fmt.Sprintf("unexpected redirect to %q", resp.Header.Get("Location"))
	default:
		e.Message = strings.TrimSpace(string(out))
	}

	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	e.err = parseErrNotFound(e.Message)
	return e
}
