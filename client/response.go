package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RequestOptions describes the outbound call. Body is kept as bytes so the
// same content can be sent again after a refresh.
type RequestOptions struct {
	Header http.Header
	Query  url.Values
	Body   []byte
}

// JSONBody marshals v into a RequestOptions body.
func JSONBody(v any) (RequestOptions, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return RequestOptions{}, err
	}
	return RequestOptions{Body: data}, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v. An empty body leaves v untouched.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// serverError turns the {"message": ...} body returned by the auth server
// into an error, falling back to the status text.
func (r *Response) serverError() error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Message != "" {
		return errors.New(body.Message)
	}
	if text := strings.TrimSpace(http.StatusText(r.StatusCode)); text != "" {
		return errors.New(text)
	}
	return fmt.Errorf("status %d", r.StatusCode)
}
