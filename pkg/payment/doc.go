// Package payment collects subscription payments over mobile money.
//
// The wire protocols of the mobile money operators live behind the Provider
// interface; this package owns everything around them: plan catalog, phone
// normalization, transaction references, the payment_transactions ledger,
// operator callbacks and the subscriptions they activate.
//
//	svc := payment.NewService(conn,
//		payment.WithProvider(payment.NewSandbox("mtn")),
//		payment.WithProvider(payment.NewSandbox("airtel")),
//	)
//	tx, err := svc.Subscribe(ctx, payment.SubscribeInput{
//		UserID: user.ID, Plan: "premium", Method: "mtn", Phone: "0788 123 456",
//	})
//
// A transaction starts pending. The operator later calls back with the
// outcome; ParseMTNCallback and ParseAirtelCallback turn those payloads into
// a Callback, and Service.HandleCallback records the status and activates
// the subscription once the payment is completed. Callbacks are idempotent:
// a completed transaction is never activated twice.
//
// Phone numbers are normalized by NormalizePhone, which only rewrites the
// two local Rwandan shapes (9 digits starting with 7, 10 digits starting
// with 07). Any other input is returned as digits only.
package payment
