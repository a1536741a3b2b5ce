package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/pkg/errors"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	maxErrorBody = 64 << 10
)

// errorBody covers both the GoTrue and the PostgREST error shapes.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorBody) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if c, ok := e.Code.(string); ok && c != "" {
		return c
	}
	return e.Error
}

func (e errorBody) message() string {
	for _, m := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

// do sends req with hc and decodes a 2xx JSON answer into out (which may be
// nil). Failures to reach the backend become TransportErrors, non-2xx answers
// AuthErrors.
func (c *Client) do(ctx context.Context, hc *http.Client, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrapf(err, "[gotrue.Client.%s] marshal", req.op)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return errors.Wrapf(err, "[gotrue.Client.%s] new request", req.op)
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.header {
		httpReq.Header[k] = v
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return &apperrors.TransportError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(req.op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &apperrors.TransportError{Op: req.op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	ae := &apperrors.AuthError{
		Op:      op,
		Status:  resp.StatusCode,
		Code:    eb.code(),
		Message: eb.message(),
	}
	if ae.Message == "" {
		ae.Message = http.StatusText(resp.StatusCode)
	}
	switch {
	case ae.Code == "invalid_credentials" || (ae.Code == "invalid_grant" && op == opSignIn):
		ae.Err = apperrors.ErrInvalidCredentials
	case ae.Code == "user_already_exists" || ae.Code == "email_exists":
		ae.Err = apperrors.ErrEmailTaken
	case ae.Code == "weak_password":
		ae.Err = apperrors.ErrWeakPassword
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		ae.Err = apperrors.ErrUnauthorized
	}
	return ae
}
