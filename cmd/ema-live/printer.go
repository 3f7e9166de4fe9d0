package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/muesli/reflow/wordwrap"
)

const transcriptWidth = 100

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headingStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	operatorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// eventPrinter writes session events for the operator: transcripts and tool
// calls to out, state changes to the logger.
type eventPrinter struct {
	out    io.Writer
	logger *slog.Logger
}

func newEventPrinter(out io.Writer, logger *slog.Logger) *eventPrinter {
	return &eventPrinter{out: out, logger: logger}
}

func (p *eventPrinter) Handle(record events.Record) error {
	switch record.Kind {
	case events.KindTranscriptReceived:
		var event events.TranscriptReceived
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		p.transcript(event)
	case events.KindToolCallStarted:
		var event events.ToolCallStarted
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		fmt.Fprintf(p.out, "%s %s %s\n", toolStyle.Render("tool called:"), event.Name, dimStyle.Render(formatFields(event.Arguments)))
	case events.KindToolCallCompleted:
		var event events.ToolCallCompleted
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		fmt.Fprintf(p.out, "%s %s %s %s\n", toolStyle.Render("tool result:"), event.Name, formatFields(event.Response), dimStyle.Render(event.Elapsed.Round(time.Millisecond).String()))
	case events.KindToolCallFailed:
		var event events.ToolCallFailed
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		fmt.Fprintf(p.out, "%s %s %s\n", failureStyle.Render("tool failed:"), event.Name, event.Error)
	case events.KindSessionStateChanged:
		var event events.SessionStateChanged
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		if event.Error != "" {
			p.logger.Error("session state changed", "from", event.From, "to", event.To, "error", event.Error)
		} else {
			p.logger.Info("session state changed", "from", event.From, "to", event.To)
		}
	case events.KindTurnStateChanged:
		var event events.TurnStateChanged
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		p.logger.Debug("turn state changed", "from", event.From, "to", event.To)
	case events.KindAssistantPlaybackFlushed:
		var event events.AssistantPlaybackFlushed
		if err := record.Decode(&event); err != nil {
			return p.dropped(record, err)
		}
		p.logger.Debug("assistant playback flushed", "frames", event.Discarded)
	default:
		p.logger.Debug("unhandled session event", "namespace", record.Kind.Namespace(), "kind", record.Kind)
	}
	return nil
}

func (p *eventPrinter) transcript(event events.TranscriptReceived) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return
	}

	var label string
	switch event.Source {
	case events.TranscriptSourceInput:
		label = operatorStyle.Render("you:")
	default:
		label = assistantStyle.Render("assistant:")
	}
	fmt.Fprintf(p.out, "%s %s\n", label, wordwrap.String(text, transcriptWidth))
}

// dropped logs an undecodable record. The router must keep running, so the
// record is acknowledged.
func (p *eventPrinter) dropped(record events.Record, err error) error {
	p.logger.Warn("dropping undecodable session event", "kind", record.Kind, "error", err)
	return nil
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type bannerTool struct {
	name, params, summary string
}

func printBanner(out io.Writer, tools []bannerTool, crmURL, quitSentinel string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, titleStyle.Render("  ema-live: CRM voice assistant"))
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, headingStyle.Render("CRM functions:"))
	for i, tool := range tools {
		fmt.Fprintf(out, "  %d. %s(%s)\n", i+1, tool.name, tool.params)
		fmt.Fprintf(out, "     %s\n", dimStyle.Render(tool.summary))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "CRM server: %s\n", crmURL)
	fmt.Fprintf(out, "Speak, or type a message and press enter. Type %q to quit.\n", quitSentinel)
	fmt.Fprintln(out, rule)
}
