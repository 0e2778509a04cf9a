package i18n

import (
	"fmt"
	"strings"
)

// ReplacePlaceholders fills {{name}} placeholders in tpl from values.
// Unknown placeholders are left as they are.
//
//	ReplacePlaceholders("Hi {{name}}", M{"name": "Aline"}) // "Hi Aline"
func ReplacePlaceholders(tpl string, values M) string {
	if len(values) == 0 || !strings.Contains(tpl, "{{") {
		return tpl
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
