package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	orchestration "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio/miniaudio"
	"github.com/koscakluka/ema-live/core/audio/portaudio"
	"github.com/koscakluka/ema-live/core/crm/client"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"github.com/koscakluka/ema-live/core/live/gemini"
	"github.com/koscakluka/ema-live/internal/config"
	"github.com/spf13/cobra"
)

const sessionTopic = "session"

func newRunCmd(configPath *string) *cobra.Command {
	var noAudio bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a live voice session",
		Long:  "Opens the microphone and speaker, connects to the realtime voice model and lets it manage CRM records through function calls.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			return runSession(cmd, cfg, noAudio)
		},
	}

	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "text only: do not open audio devices")
	return cmd
}

func runSession(cmd *cobra.Command, cfg *config.Config, noAudio bool) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector, err := gemini.NewConnector(ctx, cfg.Gemini.APIKey, gemini.WithAPIVersion(cfg.Gemini.APIVersion))
	if err != nil {
		return err
	}

	crmClient := client.New(cfg.CRM.BaseURL, client.WithTimeout(cfg.CRM.Timeout))
	tools := client.Tools(crmClient)

	router, err := events.NewRouter(events.WithRouterLogger(logger))
	if err != nil {
		return err
	}
	router.AddHandler("printer", sessionTopic, newEventPrinter(out, logger).Handle)

	// The router outlives the session so the final state changes are still
	// delivered after a signal.
	routerCtx, stopRouter := context.WithCancel(context.Background())
	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		if err := router.Run(routerCtx); err != nil {
			logger.Error("event router stopped", "error", err)
		}
	}()
	defer func() {
		stopRouter()
		<-routerDone
		router.Close()
	}()
	select {
	case <-router.Running():
	case <-ctx.Done():
		return nil
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithConnector(connector),
		orchestration.WithSessionConfig(sessionConfig(cfg)),
		orchestration.WithTools(tools...),
		orchestration.WithTextInput(cmd.InOrStdin(), out),
		orchestration.WithInputPrompt(cfg.Orchestrator.Prompt),
		orchestration.WithQuitSentinel(cfg.Orchestrator.QuitSentinel),
		orchestration.WithOutboundCapacity(cfg.Orchestrator.OutboundCapacity),
		orchestration.WithToolTimeout(cfg.Orchestrator.ToolTimeout),
		orchestration.WithEventEmitter(router.Emitter(sessionTopic)),
		orchestration.WithLogger(logger),
	}
	if !noAudio {
		input, output, err := openAudio(cfg.Audio)
		if err != nil {
			return err
		}
		opts = append(opts, orchestration.WithAudioInput(input), orchestration.WithAudioOutput(output))
	}

	printBanner(out, describeTools(tools), crmClient.BaseURL(), cfg.Orchestrator.QuitSentinel)

	if err := orchestration.NewOrchestrator(opts...).Run(ctx); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}

func sessionConfig(cfg *config.Config) live.Config {
	return live.Config{
		Model:             cfg.Gemini.Model,
		ResponseModality:  live.ModalityAudio,
		Voice:             cfg.Session.Voice,
		SystemInstruction: cfg.Session.SystemInstruction,
		Compression: live.Compression{
			TriggerTokens: cfg.Session.Compression.TriggerTokens,
			TargetTokens:  cfg.Session.Compression.TargetTokens,
		},
	}
}

// openAudio opens the capture and playback devices of the configured
// backend. The orchestrator owns and closes them.
func openAudio(cfg config.AudioConfig) (orchestration.AudioInput, orchestration.AudioOutput, error) {
	switch cfg.Backend {
	case config.BackendMiniaudio:
		capture, err := miniaudio.NewCapture(cfg.FrameSize)
		if err != nil {
			return nil, nil, &orchestration.DeviceError{Device: "capture", Err: err}
		}
		playback, err := miniaudio.NewPlayback()
		if err != nil {
			capture.Close()
			return nil, nil, &orchestration.DeviceError{Device: "playback", Err: err}
		}
		return capture, playback, nil
	default:
		capture, err := portaudio.NewCapture(cfg.FrameSize)
		if err != nil {
			return nil, nil, &orchestration.DeviceError{Device: "capture", Err: err}
		}
		playback, err := portaudio.NewPlayback(cfg.FrameSize)
		if err != nil {
			capture.Close()
			return nil, nil, &orchestration.DeviceError{Device: "playback", Err: err}
		}
		return capture, playback, nil
	}
}

func describeTools(tools []live.Tool) []bannerTool {
	described := make([]bannerTool, 0, len(tools))
	for _, declaration := range live.Declarations(tools...) {
		var params []string
		if declaration.Parameters != nil && declaration.Parameters.Properties != nil {
			for pair := declaration.Parameters.Properties.Oldest(); pair != nil; pair = pair.Next() {
				params = append(params, pair.Key)
			}
		}
		described = append(described, bannerTool{
			name:    declaration.Name,
			params:  strings.Join(params, ", "),
			summary: declaration.Description,
		})
	}
	return described
}
