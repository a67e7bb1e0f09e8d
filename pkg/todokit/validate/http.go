package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is the wire shape of the validation RPC request.
type Request struct {
	Name string `json:"name"`
}

// HTTPValidator calls a remote validation endpoint over HTTP.
// The endpoint accepts a JSON Request and answers with a JSON Result.
type HTTPValidator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPValidator creates a validator for the given endpoint URL.
// If client is nil, http.DefaultClient is used; timeouts are enforced by
// the Gateway's context, not the client.
func NewHTTPValidator(endpoint string, client *http.Client) *HTTPValidator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPValidator{endpoint: endpoint, client: client}
}

// Validate implements Validator.
func (v *HTTPValidator) Validate(ctx context.Context, name string) (Result, error) {
	body, err := json.Marshal(Request{Name: name})
	if err != nil {
		return Result{}, fmt.Errorf("encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call validator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("validator returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode validation response: %w", err)
	}
	return result, nil
}
