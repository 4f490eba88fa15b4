package supervisor

import (
	"io"
	"log/slog"
)

// discardLogger returns a slog.Logger that writes nowhere, so test output
// isn't drowned in the lifecycle engine's normal info-level chatter.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
