package logifaceadapter_test

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	slogevent "github.com/joeycumines/logiface-slog"

	"github.com/supurloop/ssf-sub000"
	"github.com/supurloop/ssf-sub000/logifaceadapter"
)

// Example wires ssf's diagnostic output through logiface-slog into a
// standard log/slog JSON handler, in place of ssf's default plain-text
// logger.
func Example() {
	backend := slogevent.NewLogger(slog.NewJSONHandler(os.Stdout, nil))
	logger := logiface.New[*slogevent.Event](backend)

	ssf.SetStructuredLogger(logifaceadapter.New(logger))
}
