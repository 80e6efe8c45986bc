package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"synkino/core"
	"synkino/host/board"
	"synkino/host/serial"
	"synkino/protocol"
)

var (
	monDevice string
	monBaud   int
	monCSV    bool
	monBlades uint8
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow the telemetry of a connected board",
	Long: "Follow the sync status of a board over USB. On a terminal a single status\n" +
		"line is redrawn; otherwise, or with --csv, every control tick is written as\n" +
		"a CSV row.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev := monDevice
		if dev == "" {
			found, err := serial.FindBoard()
			if err != nil {
				return fmt.Errorf("%w (use --device)", err)
			}
			dev = found
		}
		cfg := serial.DefaultConfig(dev)
		cfg.Baud = monBaud
		b, err := board.ConnectWithConfig(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer b.Close()
		slog.Info("monitoring", "device", dev)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		var sink func(board.Event)
		fd := int(os.Stdout.Fd())
		if !monCSV && term.IsTerminal(fd) {
			sink = liveLine(out, fd)
		} else {
			sink = csvRows(out)
		}

		err = b.Follow(ctx, sink)
		st := b.Stats()
		slog.Info("link closed", "dropped", st.Dropped, "missed", st.Missed, "bad", st.Bad)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	f := monitorCmd.Flags()
	f.StringVarP(&monDevice, "device", "d", "", "serial device (default: discover by USB ID)")
	f.IntVar(&monBaud, "baud", 115200, "baud rate, ignored by USB CDC")
	f.BoolVar(&monCSV, "csv", false, "write CSV even on a terminal")
	f.Uint8Var(&monBlades, "blades", 2, "shutter blades, to show the sync offset in frames")
	rootCmd.AddCommand(monitorCmd)
}

// liveLine redraws one status line sized to the terminal.
func liveLine(out io.Writer, fd int) func(board.Event) {
	return func(e board.Event) {
		switch v := e.Value.(type) {
		case protocol.SyncStatus:
			line := formatStatus(v, monBlades)
			if w, _, err := term.GetSize(fd); err == nil && w > 1 && len(line) > w-1 {
				line = line[:w-1]
			}
			fmt.Fprintf(out, "\r\x1b[K%s", line)
		case protocol.StateChange:
			fmt.Fprintf(out, "\r\x1b[K%s -> %s\n",
				core.PlaybackState(v.From), core.PlaybackState(v.To))
		case protocol.LogLine:
			fmt.Fprintf(out, "\r\x1b[K%s\n", v.Text)
		}
	}
}

func formatStatus(s protocol.SyncStatus, blades uint8) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %s  imp %6d  delta %+6d  trim %+7d  frames %+3d",
		core.PlaybackState(s.State), core.FormatElapsed(s.Elapsed),
		s.Impulses, s.Delta, s.Output, s.FrameOffset)
	if blades > 0 {
		fmt.Fprintf(&b, "  offset %+d", s.SyncOffset/int32(blades))
	}
	return b.String()
}

// csvRows writes one row per control tick.
func csvRows(out io.Writer) func(board.Event) {
	w := csv.NewWriter(out)
	w.Write([]string{"time", "state", "elapsed_s", "impulses", "sync_offset", "delta", "output", "frame_offset"})
	w.Flush()
	return func(e board.Event) {
		s, ok := e.Value.(protocol.SyncStatus)
		if !ok {
			return
		}
		w.Write([]string{
			e.At.Format("15:04:05.000"),
			core.PlaybackState(s.State).String(),
			strconv.FormatUint(uint64(s.Elapsed), 10),
			strconv.FormatUint(uint64(s.Impulses), 10),
			strconv.Itoa(int(s.SyncOffset)),
			strconv.Itoa(int(s.Delta)),
			strconv.Itoa(int(s.Output)),
			strconv.Itoa(int(s.FrameOffset)),
		})
		w.Flush()
	}
}
