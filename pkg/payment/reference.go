package payment

import (
	"time"

	"github.com/dmitrymomot/cineverse/pkg/id"
)

// NewReference returns a transaction reference CV_<YYYYmmddHHMMSS>_<XXXXXX>
// where the suffix is six random uppercase letters or digits.
func NewReference(now time.Time) string {
	return "CV_" + now.Format("20060102150405") + "_" + id.Random(6)
}
