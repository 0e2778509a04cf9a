package payment

import (
	"encoding/json"
	"errors"
	"strings"
)

// Callback is an operator status notification.
type Callback struct {
	Metadata  map[string]any
	Provider  string
	Reference string
	Status    string
}

type mtnCallback struct {
	FinancialTransactionID string `json:"financialTransactionId"`
	ExternalID             string `json:"externalId"`
	Status                 string `json:"status"`
	Reason                 any    `json:"reason"`
}

// ParseMTNCallback decodes an MTN MoMo request-to-pay callback.
func ParseMTNCallback(body []byte) (*Callback, error) {
	var p mtnCallback
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Join(ErrInvalidCallback, err)
	}
	if p.ExternalID == "" || p.Status == "" {
		return nil, ErrInvalidCallback
	}

	meta := map[string]any{"provider_status": p.Status}
	if p.FinancialTransactionID != "" {
		meta["financial_transaction_id"] = p.FinancialTransactionID
	}
	if p.Reason != nil {
		meta["reason"] = p.Reason
	}
	return &Callback{
		Provider:  MethodMTN,
		Reference: p.ExternalID,
		Status:    mtnStatus(p.Status),
		Metadata:  meta,
	}, nil
}

func mtnStatus(s string) string {
	switch strings.ToUpper(s) {
	case "SUCCESSFUL":
		return StatusCompleted
	case "FAILED", "REJECTED", "TIMEOUT":
		return StatusFailed
	default:
		return StatusPending
	}
}

type airtelCallback struct {
	Transaction struct {
		ID            string `json:"id"`
		Message       string `json:"message"`
		StatusCode    string `json:"status_code"`
		AirtelMoneyID string `json:"airtel_money_id"`
	} `json:"transaction"`
}

// ParseAirtelCallback decodes an Airtel Money collection callback.
func ParseAirtelCallback(body []byte) (*Callback, error) {
	var p airtelCallback
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Join(ErrInvalidCallback, err)
	}
	tx := p.Transaction
	if tx.ID == "" || tx.StatusCode == "" {
		return nil, ErrInvalidCallback
	}

	meta := map[string]any{"provider_status": tx.StatusCode}
	if tx.AirtelMoneyID != "" {
		meta["airtel_money_id"] = tx.AirtelMoneyID
	}
	if tx.Message != "" {
		meta["message"] = tx.Message
	}
	return &Callback{
		Provider:  MethodAirtel,
		Reference: tx.ID,
		Status:    airtelStatus(tx.StatusCode),
		Metadata:  meta,
	}, nil
}

func airtelStatus(code string) string {
	switch strings.ToUpper(code) {
	case "TS":
		return StatusCompleted
	case "TF", "TE":
		return StatusFailed
	default:
		return StatusPending
	}
}
