package audio

import "fmt"

const (
	// CaptureSampleRate is the rate the service expects for microphone audio.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the rate of synthesized audio sent by the service.
	PlaybackSampleRate = 24000
	// DefaultFrameSize is the number of samples in one captured frame.
	DefaultFrameSize = 1024
)

func CaptureEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: CaptureSampleRate, Format: EncodingLinear16}
}

func PlaybackEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: PlaybackSampleRate, Format: EncodingLinear16}
}

// EncodingInfo describes mono audio at a fixed rate.
type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// FrameBytes is the byte length of a frame holding samples samples.
func (e EncodingInfo) FrameBytes(samples int) int {
	return samples * e.Format.ByteSize()
}

// MIMEType is the type the session transport tags audio chunks with.
func (e EncodingInfo) MIMEType() string {
	if e.Format == EncodingLinear16 {
		return fmt.Sprintf("audio/pcm;rate=%d", e.SampleRate)
	}
	return fmt.Sprintf("audio/%s;rate=%d", e.Format.Name(), e.SampleRate)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	if e == EncodingLinear16 {
		return 2
	}
	return -1
}

// EncodingLinear16 is signed 16-bit little-endian PCM, the only format the
// session accepts.
const EncodingLinear16 encodingFormat = "linear16"
