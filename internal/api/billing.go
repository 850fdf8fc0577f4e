// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// =============================================================================
// USAGE AND BILLING
// =============================================================================

// TokenUsage reports the account's consumed tokens and active plan.
type TokenUsage struct {
	TokenCount int    `json:"token_count"`
	Plan       string `json:"plan"`
}

// TokenCount fetches the current token usage and plan for the signed-in
// user.
func (c *Client) TokenCount(ctx context.Context) (*TokenUsage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/token_count", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	var usage TokenUsage
	if err := decodeJSON(resp, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// checkoutRequest is the payload for the checkout session endpoint.
type checkoutRequest struct {
	Plan string `json:"plan"`
}

// sessionResponse carries the Stripe redirect URL for checkout and portal
// sessions.
type sessionResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession starts a Stripe checkout for the given plan and
// returns the URL to open in a browser.
func (c *Client) CreateCheckoutSession(ctx context.Context, plan string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/create-checkout-session", checkoutRequest{Plan: plan})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}

	var session sessionResponse
	if err := decodeJSON(resp, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "checkout session returned no url"}
	}
	return session.URL, nil
}

// CreatePortalSession opens a Stripe billing portal session for managing an
// existing subscription and returns the URL to open in a browser.
func (c *Client) CreatePortalSession(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/create-portal-session", struct{}{})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}

	var session sessionResponse
	if err := decodeJSON(resp, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "portal session returned no url"}
	}
	return session.URL, nil
}
