package miniaudio

import (
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
)

var ErrClosed = errors.New("miniaudio: device closed")

func initContext() (*malgo.AllocatedContext, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return audioCtx, nil
}

func freeContext(audioCtx *malgo.AllocatedContext) error {
	if audioCtx == nil {
		return nil
	}
	err := audioCtx.Uninit()
	audioCtx.Free()
	return err
}
