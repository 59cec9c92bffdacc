package adapter

import (
	"fmt"
	"io"
	"sync"

	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"

	"github.com/rs/zerolog"
)

// LogSink reports loader notifications as log entries.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(l zerolog.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) OnCollectionReady(records model.Collection) {
	s.log.Info().Int(xlog.FieldTotal, len(records)).Msg("collection ready")
}

func (s *LogSink) OnStatusMessage(text string, severity model.Severity) {
	ev := s.log.Info()
	if severity == model.SeverityError {
		ev = s.log.Warn()
	}
	ev.Str("severity", string(severity)).Msg(text)
}

func (s *LogSink) OnIngestionError(message string) {
	s.log.Error().Msg(message)
}

// WriterSink prints status lines for interactive use. Loading messages are
// only printed when Verbose is set.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	Verbose bool
}

func NewWriterSink(w io.Writer, verbose bool) *WriterSink {
	return &WriterSink{w: w, Verbose: verbose}
}

func (s *WriterSink) OnCollectionReady(model.Collection) {}

func (s *WriterSink) OnStatusMessage(text string, severity model.Severity) {
	if severity == model.SeverityLoading && !s.Verbose {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] %s\n", severity, text)
}

func (s *WriterSink) OnIngestionError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "Error loading the catalogue. Check your connection and try again. (%s)\n", message)
}
