package validation

import (
	"strings"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

// Sanitize drops next_actions whose action or first_step is blank, keeping the
// order of the survivors. It returns the number of dropped entries and is
// idempotent.
func Sanitize(resp domain.TransformResponse) (domain.TransformResponse, int) {
	kept := make([]domain.NextAction, 0, len(resp.NextActions))
	for _, action := range resp.NextActions {
		if strings.TrimSpace(action.Action) == "" || strings.TrimSpace(action.FirstStep) == "" {
			continue
		}
		kept = append(kept, action)
	}
	dropped := len(resp.NextActions) - len(kept)
	resp.NextActions = kept
	return normalize(resp), dropped
}
