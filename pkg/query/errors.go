package query

import "errors"

var (
	ErrPrecondition      = errors.New("query: precondition failed")
	ErrNoRows            = errors.New("query: no rows in result set")
	ErrNoValues          = errors.New("query: no values to write")
	ErrNoRunner          = errors.New("query: builder has no runner")
	ErrInvalidOperator   = errors.New("query: invalid comparison operator")
	ErrInvalidIdentifier = errors.New("query: invalid identifier")
	ErrBindingConflict   = errors.New("query: binding name already in use")
)

// PreconditionError is returned when a mutating operation would affect the
// whole table because no WHERE condition has been accumulated.
type PreconditionError struct {
	Op    string
	Table string
}

func (e *PreconditionError) Error() string {
	return "query: refusing to " + e.Op + " " + e.Table + " without a WHERE clause"
}

// Is makes errors.Is(err, ErrPrecondition) match any PreconditionError.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
