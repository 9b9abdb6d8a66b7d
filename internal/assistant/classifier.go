package assistant

import (
	"strings"

	"github.com/farmchain/assistant-platform/internal/model"
)

// Classify maps a message to the first category whose keyword list has a
// substring match in the lower-cased message. Declaration order in the
// knowledge table is the tie-break: a message matching several categories
// resolves to the earliest one. No match returns general.
func Classify(message string) model.Category {
	lower := strings.ToLower(message)

	for _, e := range Knowledge {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return e.Category
			}
		}
	}

	return model.CategoryGeneral
}
