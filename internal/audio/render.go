package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/pkg/utils"
)

// ErrNothingToRender is returned when there are no notes to synthesise.
var ErrNothingToRender = errors.New("audio: no notes to render")

const bitDepth = 16

// RenderConfig controls excerpt synthesis.
type RenderConfig struct {
	SampleRate int     // e.g. 11025, 22050, 44100
	BPM        float64 // onset units are quarter notes
	Amplitude  float64 // peak level in (0, 1]
}

func (c RenderConfig) withDefaults() RenderConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 22050
	}
	if c.BPM <= 0 {
		c.BPM = 120
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		c.Amplitude = 0.8
	}
	return c
}

// Frequency is the equal-tempered frequency of a MIDI pitch (A4 = 440 Hz).
func Frequency(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// Synthesize mixes one sine tone per point into mono PCM samples. The
// excerpt starts at the earliest onset.
func Synthesize(points []geometry.Point, cfg RenderConfig) (*audio.IntBuffer, error) {
	if len(points) == 0 {
		return nil, ErrNothingToRender
	}
	cfg = cfg.withDefaults()
	secondsPerBeat := 60 / cfg.BPM
	rate := float64(cfg.SampleRate)

	start, end := points[0].Onset, points[0].Offset()
	for _, p := range points[1:] {
		if p.Onset.Cmp(start) < 0 {
			start = p.Onset
		}
		if p.Offset().Cmp(end) > 0 {
			end = p.Offset()
		}
	}
	total := int(math.Ceil(end.Sub(start).Float64() * secondsPerBeat * rate))
	if total <= 0 {
		return nil, ErrNothingToRender
	}

	mix := make([]float64, total)
	fade := int(0.005 * rate)
	for _, p := range points {
		from := int(p.Onset.Sub(start).Float64() * secondsPerBeat * rate)
		n := int(p.Duration.Float64() * secondsPerBeat * rate)
		step := 2 * math.Pi * Frequency(p.Pitch) / rate
		for i := 0; i < n && from+i < total; i++ {
			env := 1.0
			if i < fade {
				env = float64(i) / float64(fade)
			} else if n-i < fade {
				env = float64(n-i) / float64(fade)
			}
			mix[from+i] += env * math.Sin(step*float64(i))
		}
	}

	peak := 0.0
	for _, v := range mix {
		peak = math.Max(peak, math.Abs(v))
	}
	gain := cfg.Amplitude * float64(int(1)<<(bitDepth-1)-1)
	if peak > 1 {
		gain /= peak
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: cfg.SampleRate},
		Data:           make([]int, total),
		SourceBitDepth: bitDepth,
	}
	for i, v := range mix {
		buf.Data[i] = int(math.Round(v * gain))
	}
	return buf, nil
}

// RenderWAV synthesises points and writes them as 16-bit mono WAV.
func RenderWAV(w io.WriteSeeker, points []geometry.Point, cfg RenderConfig) error {
	buf, err := Synthesize(points, cfg)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(w, buf.Format.SampleRate, bitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}
	return nil
}

// RenderFile writes the excerpt to path, creating parent directories.
func RenderFile(path string, points []geometry.Point, cfg RenderConfig) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := RenderWAV(f, points, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
