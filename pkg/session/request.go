package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetRequest and PostRequest are the two variants of a forwarded call.
type GetRequest struct {
	Path string `json:"path"`
}

type PostRequest struct {
	Path string `json:"path"`
	Body json.RawMessage `json:"body"`
}

// RequestType is the tagged variant envelope: exactly one of Get or Post is
// set, with the variant name as the single JSON key.
type RequestType struct {
	Get  *GetRequest  `json:"Get,omitempty"`
	Post *PostRequest `json:"Post,omitempty"`
}

// Request names a target xnode and the call to relay to it. The xnode id
// doubles as the base URL of its manager API.
type Request struct {
	XnodeID string      `json:"xnode_id"`
	Type    RequestType `json:"request_type"`
}

// Path returns the relative path of the wrapped call, or false if the
// envelope has no variant set.
func (r Request) Path() (string, bool) {
	switch {
	case r.Type.Get != nil:
		return r.Type.Get.Path, true
	case r.Type.Post != nil:
		return r.Type.Post.Path, true
	}
	return "", false
}

// Response is the raw result of a forwarded call, relayed back verbatim.
type Response struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Do issues the wrapped call against the xnode's manager API using the
// provided (already authenticated) client and captures status and body as-is.
// A non-2xx status is not an error; only transport and read failures are.
func Do(ctx context.Context, client *http.Client, req Request) (Response, error) {
	path, ok := req.Path()
	if !ok {
		return Response{}, fmt.Errorf("request envelope has no variant set")
	}
	url := fmt.Sprintf("%s/%s", req.XnodeID, path)

	var httpReq *http.Request
	var err error
	if req.Type.Post != nil {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Type.Post.Body))
		if httpReq != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
	if err != nil {
		return Response{}, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("perform request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response from %s: %w", url, err)
	}
	return Response{Status: resp.StatusCode, Body: string(body)}, nil
}

// PostJSON is a convenience for building a Post envelope from a Go value.
func PostJSON(xnodeID, path string, body any) (Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("marshal body for %s: %w", path, err)
	}
	return Request{
		XnodeID: xnodeID,
		Type:    RequestType{Post: &PostRequest{Path: path, Body: raw}},
	}, nil
}
