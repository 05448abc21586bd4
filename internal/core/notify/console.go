package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Console Handler
// =============================================================================

// ConsoleHandler returns a handler that prints rendered notifications to w.
// A nil writer defaults to stdout. This is the only handler the engine
// supplies itself; every other channel is an external collaborator.
func ConsoleHandler(w io.Writer) Handler {
	if w == nil {
		w = os.Stdout
	}
	return func(message string, item timeline.Item, t *timeline.Timeline) bool {
		_, err := fmt.Fprintln(w, message)
		return err == nil
	}
}
