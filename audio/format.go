package audio

import (
	stderrors "errors"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MIMEWAV is the only container accepted on the wire.
const MIMEWAV = "audio/wav"

// EncodingPCM16 is signed 16-bit little-endian linear PCM.
const EncodingPCM16 = "pcm_s16le"

// wavFormatPCM is the WAVE format tag for uncompressed PCM.
const wavFormatPCM = 1

// ErrUnsupportedEncoding is returned for audio that is not WAV-wrapped linear PCM
// in the canonical layout.
var ErrUnsupportedEncoding = stderrors.New("audio: unsupported encoding")

// Format describes a PCM stream layout.
type Format struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
}

// Canonical is 16 kHz mono 16-bit PCM, what every provider accepts.
var Canonical = Format{Encoding: EncodingPCM16, SampleRate: 16000, BitDepth: 16, Channels: 1}

// String renders the format for logs and error messages.
func (f Format) String() string {
	return fmt.Sprintf("%s/%dHz/%dbit/%dch", f.Encoding, f.SampleRate, f.BitDepth, f.Channels)
}

// BytesPerSecond is the raw PCM data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}

// Inspect reads a WAV header and returns the stream format and duration.
// Anything that is not canonical PCM yields ErrUnsupportedEncoding.
func Inspect(r io.ReadSeeker) (Format, time.Duration, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Format{}, 0, fmt.Errorf("%w: not a WAV file", ErrUnsupportedEncoding)
	}
	if d.WavAudioFormat != wavFormatPCM {
		return Format{}, 0, fmt.Errorf("%w: WAVE format tag %d", ErrUnsupportedEncoding, d.WavAudioFormat)
	}

	f := Format{
		Encoding:   EncodingPCM16,
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   int(d.NumChans),
	}
	if f != Canonical {
		return f, 0, fmt.Errorf("%w: got %s, want %s", ErrUnsupportedEncoding, f, Canonical)
	}

	if err := d.FwdToPCM(); err != nil {
		return f, 0, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, err)
	}
	bytesPerSec := f.BytesPerSecond()
	dur := time.Duration(d.PCMLen()) * time.Second / time.Duration(bytesPerSec)
	return f, dur, nil
}

// DecodeSamples reads a canonical WAV stream fully into memory.
func DecodeSamples(r io.ReadSeeker) ([]int, error) {
	if _, _, err := Inspect(r); err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	d := wav.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode pcm: %w", err)
	}
	return buf.Data, nil
}

// EncodeWAV writes samples as a canonical WAV stream to w.
func EncodeWAV(w io.WriteSeeker, samples []int) error {
	enc := wav.NewEncoder(w, Canonical.SampleRate, Canonical.BitDepth, Canonical.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Canonical.Channels, SampleRate: Canonical.SampleRate},
		Data:           samples,
		SourceBitDepth: Canonical.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	return enc.Close()
}
