package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// ErrResultPending means the gateway has no final result for the attempt
// yet; the transaction stays PENDING and must be reconciled again later.
var ErrResultPending = errors.New("payment result not yet available")

// The gateway answers a query for a still-running push with this error code
// on a non-200 status.
const errCodeStillProcessing = "500.001.1001"

type Client struct {
	cfg          Config
	http         *resty.Client
	breaker      *gobreaker.CircuitBreaker
	now          func() time.Time
	tokens       tokenCache
	refreshGroup singleflight.Group
}

// NewClient builds a gateway client. The clock is injected so tests can
// drive token expiry.
func NewClient(cfg Config, now func() time.Time) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "mpesa",
			MaxRequests: 3,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.Printf("circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
		now: now,
	}
}

func (c *Client) execute(call func() (*resty.Response, error)) (*resty.Response, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return v.(*resty.Response), nil
}

// STKPush asks the gateway to prompt the payer's phone for amount KES.
// A returned error means the outcome is unknown (transport failure, breaker
// open, no token); a non-nil PushResult carries the gateway's answer,
// acceptance and rejection alike, plus the raw bodies for audit.
func (c *Client) STKPush(ctx context.Context, phoneNumber string, amount int, accountReference, description string) (*PushResult, error) {
	token, err := c.GetToken()
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, c.now())
	reqBody := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   description,
	}
	rawReq, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Content-Type", "application/json").
			SetBody(rawReq).
			Post(c.cfg.BaseURL + "/mpesa/stkpush/v1/processrequest")
	})
	if err != nil {
		return nil, fmt.Errorf("stk push request failed: %w", err)
	}

	result := PushResult{RawRequest: rawReq, RawResponse: resp.Body()}
	if err := json.Unmarshal(resp.Body(), &result.Response); err != nil {
		return nil, fmt.Errorf("failed to parse stk push response: %w", err)
	}
	return &result, nil
}

// QueryStatus asks the gateway for the current result of a push attempt and
// normalizes the answer into the same PaymentResult shape callbacks produce.
// ErrResultPending is returned while the prompt is still open on the
// payer's phone.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*PaymentResult, []byte, error) {
	token, err := c.GetToken()
	if err != nil {
		return nil, nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, c.now())
	reqBody := stkQueryRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Content-Type", "application/json").
			SetBody(reqBody).
			Post(c.cfg.BaseURL + "/mpesa/stkpushquery/v1/query")
	})
	if err != nil {
		return nil, nil, fmt.Errorf("status query failed: %w", err)
	}

	raw := resp.Body()
	var queryResp stkQueryResponse
	if err := json.Unmarshal(raw, &queryResp); err != nil {
		return nil, raw, fmt.Errorf("failed to parse status query response: %w", err)
	}

	if resp.StatusCode() != 200 {
		if queryResp.ErrorCode == errCodeStillProcessing {
			return nil, raw, ErrResultPending
		}
		return nil, raw, fmt.Errorf("status query failed with status %d: %s", resp.StatusCode(), string(raw))
	}

	if queryResp.ResultCode == nil {
		return nil, raw, fmt.Errorf("status query response carries no result code: %s", string(raw))
	}

	result := PaymentResult{
		CheckoutRequestID: queryResp.CheckoutRequestID,
		MerchantRequestID: queryResp.MerchantRequestID,
		ResultCode:        int(*queryResp.ResultCode),
		ResultDesc:        queryResp.ResultDesc,
	}
	if result.CheckoutRequestID == "" {
		result.CheckoutRequestID = checkoutRequestID
	}
	return &result, raw, nil
}
