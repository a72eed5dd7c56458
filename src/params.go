package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed design parameters of the sampling chain.
 *
 *		The timestamp counter runs at the ADC tick rate.  Samples
 *		are produced in fixed-size blocks and the tracking loops
 *		are updated once per block, so one loop update window is
 *		AdcSampleTicks * SampleBufferSize counter ticks.
 *
 *----------------------------------------------------------------*/

const (
	// AdcSampleTicksLog2 is the log2 number of timestamp counter ticks
	// per ADC sample.
	AdcSampleTicksLog2 = 8
	AdcSampleTicks     = 1 << AdcSampleTicksLog2

	// SampleBufferSizeLog2 is the log2 number of samples per block.
	SampleBufferSizeLog2 = 3
	SampleBufferSize     = 1 << SampleBufferSizeLog2

	// TimestampWindowLog2 is the log2 number of counter ticks per loop
	// update window (one block).
	TimestampWindowLog2 = AdcSampleTicksLog2 + SampleBufferSizeLog2
)

// DacFullScale is the magnitude of a full-scale 16-bit output code as a
// float.  IIR clamp ranges on the output path are expressed against it.
const DacFullScale = float64(1<<15 - 1)
