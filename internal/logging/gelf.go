package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler returns a JSON slog handler that ships records to a Graylog
// GELF UDP input at address. The returned closer releases the connection.
func NewGelfHandler(address, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF writer: %w", err)
	}
	return slog.NewJSONHandler(w, HandlerOptions(level)), w, nil
}
