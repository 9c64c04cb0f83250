package ballcluster

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger("[ballcluster] ", w.Ops)
	diagLogger = newLogger("[ballcluster] ", w.Diag)
	traceLogger = newLogger("[ballcluster] ", w.Trace)
}

// newLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func logf(l **log.Logger, format string, args []interface{}) {
	mu.RLock()
	lg := *l
	mu.RUnlock()
	if lg != nil {
		lg.Printf(format, args...)
	}
}

// Opsf logs to the ops stream: input contract violations and other
// warnings a caller should act on.
func Opsf(format string, args ...interface{}) { logf(&opsLogger, format, args) }

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) { logf(&diagLogger, format, args) }

// Tracef logs per-tick telemetry.
func Tracef(format string, args ...interface{}) { logf(&traceLogger, format, args) }
