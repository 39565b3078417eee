// Package audio owns the capture and playback controllers and their
// device ports. The microphone and the speaker are each modeled as a
// single exclusively-owned device.
package audio

// Config specifies audio format parameters.
type Config struct {
	// SampleRate in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultConfig returns the standard audio configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:    24000,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// BytesPerSecond returns the audio byte rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c Config) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c Config) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}

// Buffer is the ephemeral result of a finished recording. It is handed
// to transcription and then discarded, never persisted.
type Buffer struct {
	// Bytes is the encoded audio payload.
	Bytes []byte

	// MIMEType tags the encoding, e.g. "audio/webm" or "audio/m4a".
	MIMEType string

	// Source optionally locates where the device staged the recording.
	Source string
}
