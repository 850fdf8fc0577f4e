// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// =============================================================================
// STREAMING SEND
// =============================================================================

// streamBufferSize is the read buffer for streamed reply chunks.
const streamBufferSize = 4 * 1024

// StreamCallback receives each raw text chunk of an assistant reply, in
// arrival order. Chunk boundaries are transport artifacts and carry no
// meaning; callers accumulate.
type StreamCallback func(chunk string)

// sendRequest is the payload for the streaming message endpoint.
type sendRequest struct {
	Content string `json:"content"`
}

// SendMessage posts a user message and streams the assistant reply. The
// response body is raw text, not JSON; callback runs once per chunk and the
// full accumulated reply is returned. Provider and model select the vendor
// route on the backend.
//
// The request uses the no-timeout streaming client; cancel ctx to abort a
// long or stalled reply.
func (c *Client) SendMessage(ctx context.Context, chatID, content, provider, modelName string, callback StreamCallback) (string, error) {
	query := url.Values{}
	query.Set("provider", provider)
	query.Set("model", modelName)
	path := "/chats/" + chatID + "/messages?" + query.Encode()

	req, err := c.newRequest(ctx, http.MethodPost, path, sendRequest{Content: content})
	if err != nil {
		return "", err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", mapStatusError(resp)
	}

	var full strings.Builder
	buf := make([]byte, streamBufferSize)
	for {
		select {
		case <-ctx.Done():
			return full.String(), ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if callback != nil {
				callback(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return full.String(), &ClientError{Type: ErrTypeNoStream, Message: "stream interrupted", Cause: err}
		}
	}

	if full.Len() == 0 {
		return "", ErrNoStream
	}
	return full.String(), nil
}
