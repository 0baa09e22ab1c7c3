package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/logging"
)

// LogStreamInput filters the log stream.
type LogStreamInput struct {
	Module string `query:"module" example:"lilt" doc:"Only stream entries from this module"`
}

func (in *LogStreamInput) matches(module string) bool {
	return in.Module == "" || in.Module == module
}

// LogExportResponse is the buffered log as plain text.
type LogExportResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// registerLogRoutes registers the log export and streaming endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "export-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs/export",
		Summary:     "Export logs",
		Description: "Download the buffered daemon and lilt logs as plain text, oldest first",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *LogStreamInput) (*LogExportResponse, error) {
		var sb strings.Builder
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				if input.matches(entry.Module) {
					sb.WriteString(logging.FormatLogLine(entry))
					sb.WriteByte('\n')
				}
			}
		}
		return &LogExportResponse{
			ContentType:        "text/plain; charset=utf-8",
			ContentDisposition: `attachment; filename="liltpanel.log"`,
			Body:               []byte(sb.String()),
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Daemon and lilt logs via Server-Sent Events. Sends buffered logs first, then streams new ones.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *LogStreamInput, send sse.Sender) {
		// Subscribe before replaying so nothing logged in between is lost;
		// live entries already replayed are skipped by sequence number.
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannelFunc(s.eventBus, eventCh, func(e events.LogEntryEvent) bool {
			return input.matches(e.Module)
		})
		defer unsubscribe()

		var replayed uint64
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				replayed = entry.Seq
				if !input.matches(entry.Module) {
					continue
				}
				if err := send.Data(logEntryEvent(entry)); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				entry, ok := event.(events.LogEntryEvent)
				if !ok {
					continue
				}
				if entry.Seq != 0 && entry.Seq <= replayed {
					continue
				}
				if err := send.Data(entry); err != nil {
					return
				}
			}
		}
	})
}

// logEntryEvent converts a buffered log entry to its event form.
func logEntryEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}
