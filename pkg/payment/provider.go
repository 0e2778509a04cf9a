package payment

import "context"

// Methods accepted by Subscribe.
const (
	MethodMTN    = "mtn"
	MethodAirtel = "airtel"
)

// Request asks an operator to collect Amount from Phone.
type Request struct {
	Reference   string
	Phone       string
	Currency    string
	Country     string
	Description string
	Amount      int64
}

// Receipt is the operator's immediate answer. Most operators accept the
// request as pending and report the outcome through a callback.
type Receipt struct {
	ExternalID string
	Status     string
}

// Provider speaks one operator's collection protocol.
type Provider interface {
	Name() string
	RequestPayment(ctx context.Context, req Request) (*Receipt, error)
}

// Sandbox accepts every request as pending under the request reference.
// It stands in for an operator during development and tests.
type Sandbox struct {
	name string
}

func NewSandbox(name string) *Sandbox { return &Sandbox{name: name} }

func (s *Sandbox) Name() string { return s.name }

func (s *Sandbox) RequestPayment(_ context.Context, req Request) (*Receipt, error) {
	return &Receipt{ExternalID: req.Reference, Status: StatusPending}, nil
}
