package gemini

import (
	"fmt"
	"strings"

	"github.com/koscakluka/ema-live/core/live"
	"google.golang.org/genai"
)

func liveConnectConfig(config live.Config) (*genai.LiveConnectConfig, error) {
	modality := strings.ToUpper(config.ResponseModality)
	if modality == "" {
		modality = live.ModalityAudio
	}

	connectConfig := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.Modality(modality)},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	if config.Voice != "" {
		connectConfig.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: config.Voice},
			},
		}
	}

	if config.SystemInstruction != "" {
		connectConfig.SystemInstruction = genai.NewContentFromText(config.SystemInstruction, genai.RoleUser)
	}

	if config.Compression.Enabled() {
		compression := &genai.ContextWindowCompressionConfig{
			TriggerTokens: genai.Ptr(config.Compression.TriggerTokens),
			SlidingWindow: &genai.SlidingWindow{},
		}
		if target := config.Compression.TargetTokens; target > 0 {
			if target >= config.Compression.TriggerTokens {
				return nil, fmt.Errorf("compression target %d must be below trigger %d", target, config.Compression.TriggerTokens)
			}
			compression.SlidingWindow.TargetTokens = genai.Ptr(target)
		}
		connectConfig.ContextWindowCompression = compression
	}

	if len(config.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(config.Tools))
		for _, tool := range config.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  convertJSONSchema(tool.Parameters),
			})
		}
		connectConfig.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return connectConfig, nil
}
