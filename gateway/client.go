// Package gateway talks to the external card-payment gateway. It forwards
// amounts the orchestrator computed and maps callback events back into
// settlement outcomes; it never does fee arithmetic of its own.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrGatewayRequest = errors.New("gateway request failed")

// PaymentRequest carries everything the gateway needs for a destination
// charge: the charged amount, the merchant sub-account the funds route to,
// and the platform fee withheld as an application fee.
type PaymentRequest struct {
	Amount             int64
	Currency           string
	DestinationAccount string
	ApplicationFee     int64
	Metadata           map[string]string
}

// PaymentIntent is the gateway's handle for an in-flight card payment.
type PaymentIntent struct {
	Reference    string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Client interface {
	CreatePaymentRequest(ctx context.Context, req PaymentRequest) (*PaymentIntent, error)
}

// HTTPClient is the production Client, posting form-encoded payment-intent
// requests the way the gateway's own SDKs do.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreatePaymentRequest(ctx context.Context, req PaymentRequest) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("transfer_data[destination]", req.DestinationAccount)
	form.Set("application_fee_amount", strconv.FormatInt(req.ApplicationFee, 10))
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		log.Printf("[GATEWAY] ❌ create payment request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGatewayRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[GATEWAY] ❌ payment request rejected: status=%d", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrGatewayRequest, resp.StatusCode)
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGatewayRequest, err)
	}
	if intent.Reference == "" {
		return nil, fmt.Errorf("%w: response missing id", ErrGatewayRequest)
	}
	return &intent, nil
}
