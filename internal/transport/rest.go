// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/protobuf/proto"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/internal/pool"
)

// restCaller executes RPCs by protobuf-JSON transcoding over HTTP/1.1.
type restCaller struct {
	conn     *Conn
	service  string
	bindings map[string]*compiledBinding
}

func (c *restCaller) Invoke(ctx context.Context, method string, req, resp proto.Message, headers http.Header) error {
	b, ok := c.bindings[method]
	if !ok {
		return fmt.Errorf("transport: no binding registered for %s.%s", c.service, method)
	}
	info := aiplatform.CallInfo{Service: c.service, Method: method}

	if headers == nil {
		headers = http.Header{}
	}
	if pre := c.conn.interceptor.PreCall; pre != nil {
		if err := pre(ctx, info, req, headers); err != nil {
			return fmt.Errorf("pre-call hook: %w", err)
		}
	}

	tr, err := transcode(c.service, method, b, req)
	if err != nil {
		return err
	}

	u := c.conn.baseURL + tr.Path + "?" + tr.Query.Encode()
	var body io.Reader
	if tr.Body != nil {
		body = bytes.NewReader(tr.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, tr.Method, u, body)
	if err != nil {
		return fmt.Errorf("build http request: %w", err)
	}
	for k, vs := range headers {
		httpReq.Header[k] = vs
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Client", c.conn.xGoogHeader)

	c.conn.logger.DebugContext(ctx, "rest call",
		slog.String("method", method),
		slog.String("http_method", tr.Method),
		slog.String("path", tr.Path),
	)

	httpResp, err := c.conn.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", c.service, method, err)
	}
	defer httpResp.Body.Close()

	buf := pool.Buffer.Get()
	buf.Reset()
	defer pool.Buffer.Put(buf)
	if _, err := buf.ReadFrom(httpResp.Body); err != nil {
		return fmt.Errorf("%s.%s: read response: %w", c.service, method, err)
	}
	respBody := buf.Bytes()
	if httpResp.StatusCode >= 400 {
		// The buffer goes back to the pool; the error keeps its own copy.
		return newAPIError(httpResp.StatusCode, bytes.Clone(respBody))
	}

	if resp != nil {
		// RawPredict-style methods declare google.api.HttpBody: the payload
		// is the body itself, not a JSON encoding of the message.
		if hb, ok := resp.(*httpbody.HttpBody); ok {
			hb.ContentType = httpResp.Header.Get("Content-Type")
			hb.Data = bytes.Clone(respBody)
		} else if len(respBody) > 0 {
			if err := respUnmarshal.Unmarshal(respBody, resp); err != nil {
				return fmt.Errorf("%s.%s: parse response: %w", c.service, method, err)
			}
		}
	}

	if post := c.conn.interceptor.PostCall; post != nil {
		if err := post(ctx, info, resp); err != nil {
			return fmt.Errorf("post-call hook: %w", err)
		}
	}
	return nil
}
