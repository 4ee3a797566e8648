package mpesa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ResultCode normalizes the gateway's result code at ingestion. Callbacks
// carry it as a JSON number while query responses carry it as a string;
// everything past the decode boundary sees an int.
type ResultCode int

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	// An empty or null code is absence, not success; coercing it to 0
	// would read as a completed payment.
	if s == "" || s == "null" {
		return fmt.Errorf("result code is empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("result code %q is not numeric", s)
	}
	*c = ResultCode(n)
	return nil
}

// MetadataItem is one named value from the success metadata bag
// (Amount, MpesaReceiptNumber, TransactionDate, PhoneNumber).
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// CallbackMetadata holds the success metadata. The gateway serializes Item
// as a bare object when there is a single entry and as an array otherwise;
// both shapes decode into one list.
type CallbackMetadata struct {
	Items []MetadataItem
}

func (m *CallbackMetadata) UnmarshalJSON(data []byte) error {
	var multi struct {
		Item []MetadataItem `json:"Item"`
	}
	if err := json.Unmarshal(data, &multi); err == nil {
		m.Items = multi.Item
		return nil
	}

	var single struct {
		Item MetadataItem `json:"Item"`
	}
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	m.Items = []MetadataItem{single.Item}
	return nil
}

// CallbackEnvelope is the gateway's asynchronous push notification body.
// ResultCode is a pointer so a delivery that omits the field is
// distinguishable from an actual 0 (success) code.
type CallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string            `json:"MerchantRequestID"`
			CheckoutRequestID string            `json:"CheckoutRequestID"`
			ResultCode        *ResultCode       `json:"ResultCode"`
			ResultDesc        string            `json:"ResultDesc"`
			CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// PaymentResult is the normalized outcome of one push attempt, produced by
// both the callback and the status-query paths before any state is touched.
type PaymentResult struct {
	CheckoutRequestID string
	MerchantRequestID string
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
	Amount            string
	PhoneNumber       string
	TransactionDate   string
}

// Result flattens the envelope into a PaymentResult, walking the metadata
// bag when present. ok is false when the delivery carried no result code;
// such a partial body must never be applied to a transaction.
func (e *CallbackEnvelope) Result() (res PaymentResult, ok bool) {
	cb := e.Body.StkCallback
	if cb.ResultCode == nil {
		return PaymentResult{CheckoutRequestID: cb.CheckoutRequestID}, false
	}
	res = PaymentResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        int(*cb.ResultCode),
		ResultDesc:        cb.ResultDesc,
	}
	if cb.CallbackMetadata == nil {
		return res, true
	}
	for _, item := range cb.CallbackMetadata.Items {
		switch item.Name {
		case "MpesaReceiptNumber":
			res.ReceiptNumber = metadataString(item.Value)
		case "TransactionDate":
			res.TransactionDate = metadataString(item.Value)
		case "PhoneNumber":
			res.PhoneNumber = metadataString(item.Value)
		case "Amount":
			res.Amount = metadataString(item.Value)
		}
	}
	return res, true
}

// metadataString renders a metadata value, which may arrive as a JSON
// string or number, without the float exponent notation.
func metadataString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the synchronous acceptance (or rejection) of a push
// request. The error fields come from the gateway's rejection shape.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`

	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Accepted reports whether the gateway acknowledged the push request.
func (r *STKPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// Message returns the most specific human-readable text the gateway sent.
func (r *STKPushResponse) Message() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	if r.ResponseDescription != "" {
		return r.ResponseDescription
	}
	return "request rejected by payment gateway"
}

// PushResult bundles the decoded acceptance with the exact bytes sent and
// received, which the caller persists for audit.
type PushResult struct {
	Response    STKPushResponse
	RawRequest  []byte
	RawResponse []byte
}

type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// stkQueryResponse mirrors the query endpoint's 200 body plus its error
// shape. ResultCode is a pointer for the same absence-vs-success reason as
// the callback envelope.
type stkQueryResponse struct {
	ResponseCode        string      `json:"ResponseCode"`
	ResponseDescription string      `json:"ResponseDescription"`
	MerchantRequestID   string      `json:"MerchantRequestID"`
	CheckoutRequestID   string      `json:"CheckoutRequestID"`
	ResultCode          *ResultCode `json:"ResultCode"`
	ResultDesc          string      `json:"ResultDesc"`

	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
