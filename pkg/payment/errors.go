package payment

import "errors"

var (
	ErrUnknownPlan         = errors.New("payment: unknown plan")
	ErrProviderUnavailable = errors.New("payment: payment method is not available")
	ErrPaymentFailed       = errors.New("payment: payment request failed")
	ErrTransactionNotFound = errors.New("payment: transaction not found")
	ErrNoSubscription      = errors.New("payment: no active subscription")
	ErrInvalidCallback     = errors.New("payment: invalid callback payload")
)
