package orchestration

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/koscakluka/ema-live/core/events"
)

const (
	defaultQuitSentinel = "q"
	defaultInputPrompt  = "message > "
	// emptyTurnPlaceholder replaces an empty line so the turn still ends.
	emptyTurnPlaceholder = "."
)

// runTextInput turns operator lines into end-of-turn text messages. The quit
// sentinel (matched case-insensitively) and end of input return ErrQuit.
func (o *Orchestrator) runTextInput(ctx context.Context, queue *outboundQueue) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	// The scanner cannot be interrupted; after cancellation it exits on the
	// next line or at end of input without delivering anything.
	go func() {
		scanner := bufio.NewScanner(o.textInput)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	for {
		o.showPrompt()

		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if err == io.EOF {
				o.logger.Info("operator input closed")
				return ErrQuit
			}
			return fmt.Errorf("failed to read operator input: %w", err)

		case line := <-lines:
			line = strings.TrimRight(line, "\r")
			if strings.EqualFold(strings.TrimSpace(line), o.quitSentinel) {
				return ErrQuit
			}
			if line == "" {
				line = emptyTurnPlaceholder
			}

			if err := queue.Put(ctx, events.NewTextTurn(line, true)); err != nil {
				return nil
			}
		}
	}
}

func (o *Orchestrator) showPrompt() {
	if o.promptOutput == nil || o.inputPrompt == "" {
		return
	}
	fmt.Fprint(o.promptOutput, o.inputPrompt)
}
