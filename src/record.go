package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Save processed telemetry blocks to disk.
 *
 * Description:	Rather than saving the raw frames, write separated
 *		properties into CSV format for easy reading and later
 *		processing.  File names are generated daily from the
 *		UTC date so long captures roll over cleanly; the file
 *		is kept open between blocks rather than reopened for
 *		every record.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

// recordHeader is written once at the top of each new file, suitable
// for importing into a spreadsheet.
var recordHeader = []string{
	"utc", "block_id",
	"adc0_mean", "adc1_mean", "dac0_mean", "dac1_mean",
}

// Recorder appends one CSV row per telemetry block to daily files in a
// directory.
type Recorder struct {
	dir      string
	nameFmt  *strftime.Strftime
	openName string
	file     *os.File
	csv      *csv.Writer
}

// NewRecorder prepares a recorder writing into dir, creating the
// directory (one level) if needed.
func NewRecorder(dir string) (*Recorder, error) {
	var stat, statErr = os.Stat(dir)
	switch {
	case statErr == nil && !stat.IsDir():
		return nil, fmt.Errorf("record location %q is not a directory", dir)
	case statErr != nil:
		if err := os.Mkdir(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating record location: %w", err)
		}
	}

	var nameFmt, fmtErr = strftime.New("%Y-%m-%d.csv")
	if fmtErr != nil {
		return nil, fmtErr
	}
	return &Recorder{dir: dir, nameFmt: nameFmt}, nil
}

// Record appends one row for the block.  The per-channel columns are
// the mean sample values, enough to follow slow channels at a glance;
// the full-rate data lives in the stream, not here.
func (r *Recorder) Record(b *AdcDacBlock) error {
	var now = time.Now().UTC()

	// Daily names; close the current file when the date rolls over.
	var fname = r.nameFmt.FormatString(now)
	if r.file != nil && fname != r.openName {
		if err := r.Close(); err != nil {
			return err
		}
	}

	if r.file == nil {
		var fullPath = filepath.Join(r.dir, fname)

		// Write the header only if this will be the first line.
		var _, statErr = os.Stat(fullPath)
		var alreadyThere = statErr == nil

		var f, openErr = os.OpenFile(fullPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
		if openErr != nil {
			return fmt.Errorf("opening record file: %w", openErr)
		}
		r.file = f
		r.openName = fname
		r.csv = csv.NewWriter(f)

		if !alreadyThere {
			if err := r.csv.Write(recordHeader); err != nil {
				return err
			}
		}
	}

	var row = []string{
		now.Format(time.RFC3339),
		strconv.FormatUint(uint64(b.BlockID), 10),
		channelMean(&b.ADC[0]),
		channelMean(&b.ADC[1]),
		channelMean(&b.DAC[0]),
		channelMean(&b.DAC[1]),
	}
	if err := r.csv.Write(row); err != nil {
		return err
	}
	r.csv.Flush()
	return r.csv.Error()
}

// Close flushes and closes the current file, if any.
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	r.csv.Flush()
	var err = r.csv.Error()
	if closeErr := r.file.Close(); err == nil {
		err = closeErr
	}
	r.file = nil
	r.csv = nil
	r.openName = ""
	return err
}

func channelMean(samples *[SampleBufferSize]uint16) string {
	var sum int64
	for _, s := range samples {
		// Undo the offset-binary DAC/ADC representation.
		sum += int64(s) - 0x8000
	}
	var mean = float64(sum) / SampleBufferSize
	return strconv.FormatFloat(mean, 'f', 2, 64)
}
