package main

/*------------------------------------------------------------------
 *
 * Purpose:	Receive a telemetry stream and record it to CSV.
 *
 *		Listens for the instrument's TCP telemetry connection,
 *		decodes the fixed-size block frames, and appends one CSV
 *		row per block to daily files.
 *
 *----------------------------------------------------------------*/

import (
	"errors"
	"io"
	"net"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	phaselock "github.com/phaselock/phaselock/src"
)

func main() {
	var listen = pflag.StringP("listen", "l", ":9293", "Listen address for the telemetry stream")
	var dir = pflag.StringP("dir", "d", ".", "Directory for daily CSV records")
	pflag.Parse()

	var recorder, recErr = phaselock.NewRecorder(*dir)
	if recErr != nil {
		log.Fatal("recorder", "err", recErr)
	}
	defer recorder.Close()

	var listener, listenErr = net.Listen("tcp", *listen)
	if listenErr != nil {
		log.Fatal("listen", "err", listenErr)
	}
	log.Info("waiting for telemetry", "addr", *listen)

	for {
		var conn, acceptErr = listener.Accept()
		if acceptErr != nil {
			log.Fatal("accept", "err", acceptErr)
		}
		log.Info("stream connected", "remote", conn.RemoteAddr())
		receive(conn, recorder)
	}
}

// receive drains one connection until it closes.
func receive(conn net.Conn, recorder *phaselock.Recorder) {
	defer conn.Close()

	var frame = make([]byte, phaselock.FrameSize)
	var lastID uint32
	var haveLast bool

	for {
		if _, err := io.ReadFull(conn, frame); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("stream read", "err", err)
			}
			log.Info("stream disconnected")
			return
		}

		var block, decodeErr = phaselock.DecodeFrame(frame)
		if decodeErr != nil {
			log.Warn("bad frame", "err", decodeErr)
			return
		}

		// Block ids wrap; any other gap means the instrument dropped
		// blocks on a full queue.
		if haveLast && block.BlockID != lastID+1 {
			log.Warn("gap in block ids", "from", lastID, "to", block.BlockID)
		}
		lastID = block.BlockID
		haveLast = true

		if err := recorder.Record(block); err != nil {
			log.Error("record", "err", err)
			return
		}
	}
}
