package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Instrument settings.
 *
 *		Settings are produced by the configuration task (YAML
 *		file today, remote configuration later) and handed to
 *		the real-time path as an immutable snapshot.  The
 *		processing routine never reads a settings file and never
 *		sees a partially updated value.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputMode selects what the two output channels carry.
type OutputMode string

const (
	// OutputIQ drives the outputs with the filtered in-phase and
	// quadrature components.
	OutputIQ OutputMode = "iq"
	// OutputPowerPhase drives the outputs with the log2-scaled power
	// and the phase of the demodulated signal.
	OutputPowerPhase OutputMode = "power_phase"
	// OutputFrequencyDiscriminator drives the outputs with the tracked
	// reference frequency and the demodulated phase.
	OutputFrequencyDiscriminator OutputMode = "frequency_discriminator"
)

// FilterSettings describe one post-filter stage by its lowpass design
// parameters.
type FilterSettings struct {
	Frequency float64 `yaml:"frequency"` // corner, fraction of sample rate
	Q         float64 `yaml:"q"`
	Gain      float64 `yaml:"gain"`
	Offset    float64 `yaml:"offset"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
}

// Build returns the biquad for this stage.
func (f FilterSettings) Build() IIR {
	return IIR{
		BA:      Lowpass(f.Frequency, f.Q, f.Gain),
		YOffset: f.Offset,
		YMin:    f.Min,
		YMax:    f.Max,
	}
}

// Settings is one immutable configuration snapshot for the processing
// routine.  Do not mutate a Settings value after committing it.
type Settings struct {
	// PLL smoothing shifts, log2 update windows.
	FrequencyShift uint `yaml:"frequency_shift"`
	PhaseShift     uint `yaml:"phase_shift"`

	// Harmonic index of the local oscillator; -1 demodulates the
	// fundamental (complex conjugate).
	Harmonic int32 `yaml:"harmonic"`

	// Demodulation phase offset in turns.
	PhaseOffsetTurns float64 `yaml:"phase_offset_turns"`

	// Log2 lowpass time constant of the demodulator.
	TimeConstant uint `yaml:"time_constant"`

	Output OutputMode `yaml:"output"`

	// Post-filter cascade applied to both output channels, 1 or 2
	// stages.
	CascadeLength int              `yaml:"cascade_length"`
	PowerFilter   []FilterSettings `yaml:"power_filter"`
	PhaseFilter   []FilterSettings `yaml:"phase_filter"`

	// Telemetry stream.
	StreamRemote   string `yaml:"stream_remote"`
	StreamCapacity int    `yaml:"stream_capacity"`
}

// DefaultSettings match the firmware defaults: 2^-21 PLL bandwidths,
// fundamental demodulation, 2^-6 lock-in bandwidth, gentle lowpass
// post-filters clamped to the DAC range.
func DefaultSettings() *Settings {
	var post = FilterSettings{
		Frequency: 0.1,
		Q:         1 / math.Sqrt2,
		Gain:      1,
		Min:       -DacFullScale - 1,
		Max:       DacFullScale,
	}
	return &Settings{
		FrequencyShift: 21,
		PhaseShift:     21,
		Harmonic:       -1,
		TimeConstant:   6,
		Output:         OutputPowerPhase,
		CascadeLength:  1,
		PowerFilter:    []FilterSettings{post},
		PhaseFilter:    []FilterSettings{post},
		StreamCapacity: 10,
	}
}

// PhaseOffset returns the turn-scaled demodulation phase offset.
func (s *Settings) PhaseOffset() int32 {
	var t = s.PhaseOffsetTurns - math.Floor(s.PhaseOffsetTurns)
	// Round in uint64 first: an offset of almost one turn rounds up to
	// exactly 1<<32, which must wrap to zero.
	return int32(uint32(uint64(math.Round(t * (1 << 32)))))
}

// Validate reports the first misconfiguration that would give the
// processing routine degenerate behavior.
func (s *Settings) Validate() error {
	if s.FrequencyShift < 1 || s.FrequencyShift > 31 {
		return fmt.Errorf("frequency_shift %d outside 1..31", s.FrequencyShift)
	}
	if s.PhaseShift < 1 || s.PhaseShift > 31 {
		return fmt.Errorf("phase_shift %d outside 1..31", s.PhaseShift)
	}
	if s.TimeConstant > 31 {
		return fmt.Errorf("time_constant %d outside 0..31", s.TimeConstant)
	}
	if s.CascadeLength < 1 || s.CascadeLength > 2 {
		return fmt.Errorf("cascade_length %d outside 1..2", s.CascadeLength)
	}
	switch s.Output {
	case OutputIQ, OutputPowerPhase, OutputFrequencyDiscriminator:
	default:
		return fmt.Errorf("unknown output mode %q", s.Output)
	}
	if len(s.PowerFilter) < s.CascadeLength || len(s.PhaseFilter) < s.CascadeLength {
		return fmt.Errorf("post-filter cascade needs %d stages per channel", s.CascadeLength)
	}
	for _, stages := range [][]FilterSettings{s.PowerFilter, s.PhaseFilter} {
		for i, f := range stages {
			if f.Frequency <= 0 || f.Frequency >= 0.5 {
				return fmt.Errorf("stage %d corner frequency %g outside (0, 0.5)", i, f.Frequency)
			}
			if f.Q <= 0 {
				return fmt.Errorf("stage %d quality factor %g not positive", i, f.Q)
			}
			if f.Min > f.Max {
				return fmt.Errorf("stage %d clamp range [%g, %g] is empty", i, f.Min, f.Max)
			}
			// The output path converts the clamped value straight to a
			// 16-bit DAC code, so the clamp must stay inside that range.
			if f.Min < -DacFullScale-1 || f.Max > DacFullScale {
				return fmt.Errorf("stage %d clamp range [%g, %g] exceeds the DAC range", i, f.Min, f.Max)
			}
		}
	}
	if s.StreamCapacity < 1 {
		return fmt.Errorf("stream_capacity %d not positive", s.StreamCapacity)
	}
	return nil
}

// LoadSettings reads a YAML settings file over the defaults and
// validates the result.
func LoadSettings(path string) (*Settings, error) {
	var raw, readErr = os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("reading settings: %w", readErr)
	}

	var s = DefaultSettings()
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
