package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPConnector talks to a real banking rail over HTTP, with every call
// wrapped by the retry adapter and translated through the error taxonomy.
type HTTPConnector struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	adapter    *Adapter
}

// NewHTTPConnector builds an HTTP rail connector.
func NewHTTPConnector(baseURL, apiKey string, adapter *Adapter) *HTTPConnector {
	return &HTTPConnector{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		adapter: adapter,
	}
}

type authorizationRequest struct {
	Operation  string `json:"operation"`
	ContractID string `json:"contract_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	RIB        string `json:"rib,omitempty"`
	Amount     int64  `json:"amount"`
	Reference  string `json:"reference,omitempty"`
}

type authorizationResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Authorize posts the authorization to the rail and decodes its decision.
func (c *HTTPConnector) Authorize(ctx context.Context, auth Authorization) (Decision, error) {
	payload, err := json.Marshal(authorizationRequest{
		Operation:  auth.Operation,
		ContractID: auth.ContractID,
		Phone:      auth.Phone,
		RIB:        auth.RIB,
		Amount:     auth.Amount,
		Reference:  auth.Reference,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("marshal authorization: %w", err)
	}

	var decision Decision
	err = c.adapter.Do(ctx, "authorize:"+auth.Operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/authorizations", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := Classify(resp.StatusCode, body); err != nil {
			return err
		}

		var decoded authorizationResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("decode authorization response: %w", err)
		}
		decision = Decision{Reference: decoded.Reference, Status: decoded.Status}
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}
