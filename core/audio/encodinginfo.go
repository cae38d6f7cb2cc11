// Package audio holds the PCM encoding vocabulary shared by capture,
// playback, recognition, and synthesis.
package audio

const (
	DefaultSampleRate = 16000
	DefaultEncoding   = EncodingLinear16
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Encoding: DefaultEncoding}
}

type EncodingInfo struct {
	SampleRate int
	Encoding   Encoding
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Encoding.Name() == ""
}

// BytesPerSecond sizes capture windows and playback buffers.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Encoding.ByteSize()
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Encoding {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	}
	return 0
}

type Encoding string

const (
	EncodingMulaw    Encoding = "mulaw"
	EncodingALaw     Encoding = "alaw"
	EncodingLinear16 Encoding = "linear16"
)

func (e Encoding) Name() string {
	return string(e)
}

func (e Encoding) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}
