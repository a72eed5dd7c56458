package main

/*------------------------------------------------------------------
 *
 * Purpose:	Exercise the lock-in pipeline against a synthetic
 *		reference and input signal.
 *
 *		Generates reference edge timestamps on the tick counter
 *		and a sinusoid locked to them, runs the processor over a
 *		number of blocks, and reports the converged estimates.
 *		Useful for tuning loop shifts and filter settings without
 *		hardware.
 *
 *----------------------------------------------------------------*/

import (
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	phaselock "github.com/phaselock/phaselock/src"
)

func main() {
	var settingsPath = pflag.StringP("settings", "c", "", "YAML settings file; defaults apply when empty")
	var blocks = pflag.IntP("blocks", "n", 200000, "Number of sample blocks to process")
	var period = pflag.IntP("period", "p", 50000, "Reference period in timestamp counter ticks")
	var amplitude = pflag.Float64P("amplitude", "a", 0.5, "Input amplitude as a fraction of full scale")
	var signalPhase = pflag.Float64P("signal-phase", "P", 0.0, "Input phase relative to the reference, in turns")
	var remote = pflag.StringP("remote", "r", "", "Stream telemetry to this TCP endpoint")
	pflag.Parse()

	var settings = phaselock.DefaultSettings()
	if *settingsPath != "" {
		var loaded, loadErr = phaselock.LoadSettings(*settingsPath)
		if loadErr != nil {
			log.Fatal("settings", "err", loadErr)
		}
		settings = loaded
	}
	if *period < 2 {
		log.Fatal("reference period must be at least 2 ticks")
	}

	var generator, stream = phaselock.SetupStreaming(settings.StreamCapacity)
	if *remote != "" {
		stream.SetRemote(*remote)
		go func() {
			for {
				if !stream.Process() {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	var processor = phaselock.NewProcessor(settings, generator)

	var window = uint64(1) << phaselock.TimestampWindowLog2
	var ticksPerSample = uint64(phaselock.AdcSampleTicks)
	var scale = *amplitude * float64(1<<15-1)

	var samples [phaselock.SampleBufferSize]int16
	var out0, out1 [phaselock.SampleBufferSize]uint16

	var tick uint64
	var nextEdge uint64

	var start = time.Now()
	for b := 0; b < *blocks; b++ {
		for i := range samples {
			var t = tick + uint64(i)*ticksPerSample
			var turns = float64(t) / float64(*period)
			var arg = 2 * math.Pi * (turns + *signalPhase)
			samples[i] = int16(math.Round(scale * math.Cos(arg)))
		}

		// Latest reference edge in this window wins, as with a
		// hardware capture register.
		var timestamp int32
		var have bool
		for nextEdge < tick+window {
			timestamp = int32(uint32(nextEdge))
			have = true
			nextEdge += uint64(*period)
		}

		processor.ProcessBlock(&samples, timestamp, have, &out0, &out1)
		tick += window
	}
	var elapsed = time.Since(start)

	var phase, frequency = processor.Estimates()
	var expected = int32(uint64(1) << (32 + phaselock.TimestampWindowLog2) / uint64(*period))

	log.Info("simulation complete",
		"blocks", *blocks,
		"elapsed", elapsed,
		"dropped", generator.Dropped())
	log.Info("reference estimates",
		"frequency", frequency,
		"expected", expected,
		"phase_turns", float64(uint32(phase))/(1<<32))

	if frequency == 0 {
		log.Error("reference never acquired")
		os.Exit(1)
	}
}
