//go:build linux

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"synkino/core"
	"synkino/host/pi"
	"synkino/track"
	"synkino/vs1053"
)

var (
	runDir   string
	runTrack int
	runSPI   string
	runSPIHz int64
	runNice  int
	runPins  piPins
)

type piPins struct {
	cs, dcs, dreq, reset uint
	impulse, leader, led uint
	outDetect            uint
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a track in sync on a Linux board",
	Long: "Drive a VS1053 decoder and the projector sensors from a Linux single-board\n" +
		"computer. Keys: y/n answer the manual-start prompt, space edits the sync\n" +
		"offset, +/- change it, q stops.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := selectedProfile()
		if err != nil {
			return err
		}
		sid := uuid.NewString()
		log := slog.Default().With("session", sid)

		if err := pi.Realtime(runNice); err != nil {
			log.Warn("running without realtime priority", "err", err)
		}
		if err := pi.Init(); err != nil {
			return err
		}
		core.SetTimeSource(pi.Clock())

		gpio := pi.NewGPIO()
		defer gpio.Close()
		bus, err := pi.OpenSPI(runSPI, runSPIHz)
		if err != nil {
			return fmt.Errorf("spi: %w", err)
		}
		defer bus.Close()

		pins := vs1053.Pins{
			CS:    core.GPIOPin(runPins.cs),
			DCS:   core.GPIOPin(runPins.dcs),
			DREQ:  core.GPIOPin(runPins.dreq),
			Reset: core.GPIOPin(runPins.reset),
		}
		dev := vs1053.New(bus, gpio, pins)
		if err := dev.Configure(); err != nil {
			return err
		}
		if err := applyPatches(dev, filepath.Join(runDir, "patches.053"), log); err != nil {
			return err
		}
		player := vs1053.NewPlayer(dev, func(name string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(runDir, name))
		})
		if runPins.outDetect != 0 {
			det := core.GPIOPin(runPins.outDetect)
			gpio.ConfigureInputPullUp(det)
			player.SetOutputProbe(func() bool { return !gpio.ReadPin(det) })
		}

		for _, n := range []uint{runPins.impulse, runPins.leader} {
			if err := gpio.ConfigureInputPullDown(core.GPIOPin(n)); err != nil {
				return err
			}
		}
		gpio.ConfigureOutput(core.GPIOPin(runPins.led))

		lib := track.NewLibrary(track.FSStore{FS: os.DirFS(runDir)})
		number := runTrack
		if number == 0 {
			if !lib.HasAutostart() {
				return errors.New("no --track given and no autostart track found")
			}
			number = track.Autostart
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		op := &keyOperator{}
		if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
			old, err := term.MakeRaw(fd)
			if err == nil {
				defer term.Restore(fd, old)
				log = slog.New(slog.NewTextHandler(crlfWriter{os.Stderr}, &slog.HandlerOptions{Level: &logLevel})).With("session", sid)
				core.SetDebugWriter(func(msg string) { log.Debug(msg) })
			}
			go readKeys(os.Stdin, op, stop)
		}

		kp, ki, kd := p.Gains()
		sess := core.NewSession(core.SessionConfig{
			Decoder:         player,
			Tracks:          lib,
			Operator:        op,
			Impulses:        core.NewImpulseCounter(gpio, gpio, core.GPIOPin(runPins.impulse), core.GPIOPin(runPins.led)),
			Leader:          core.NewLeaderDetector(gpio, gpio, core.GPIOPin(runPins.leader), core.GPIOPin(runPins.led)),
			Blades:          p.ShutterBladeCount,
			StartmarkOffset: p.StartmarkOffset,
			P:               kp,
			I:               ki,
			D:               kd,
			Yield: func() {
				if err := player.Service(); err != nil {
					log.Error("stream", "err", err)
				}
				time.Sleep(200 * time.Microsecond)
			},
			OnStateChange: func(from, to core.PlaybackState) {
				log.Info("state", "from", from.String(), "to", to.String())
				if to == core.StateOfferManualStart {
					fmt.Fprint(os.Stderr, "No leader in the gate. Start manually? [y/n]\r\n")
				}
			},
			OnStart: func() {
				log.Info("start mark passed, sound on")
			},
			OnTick: func(st core.Status) {
				log.Debug("tick", "impulses", st.Impulses, "delta", st.Sample.Delta,
					"trim", st.Sample.Output, "frames", st.Sample.FrameOffset,
					"elapsed", core.FormatElapsed(st.Elapsed))
			},
		})

		log.Info("starting", "track", number, "profile", p.Name, "dir", runDir)
		err = sess.SelectAndPlay(ctx, number)
		switch core.Classify(err) {
		case core.KindNone:
			log.Info("finished", "elapsed", core.FormatElapsed(sess.Status().Elapsed))
			return nil
		case core.KindCancelled:
			log.Info("stopped by operator")
			return nil
		}
		core.DumpTimingRing()
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runDir, "dir", ".", "directory holding the NNN-FF.ogg tracks")
	f.IntVarP(&runTrack, "track", "t", 0, "track number (default: autostart track 999)")
	f.StringVar(&runSPI, "spi", "", "periph SPI port name (default: first)")
	f.Int64Var(&runSPIHz, "spi-hz", 2000000, "SPI clock")
	f.IntVar(&runNice, "nice", -10, "process priority while playing")
	f.UintVar(&runPins.cs, "pin-cs", 5, "VS1053 XCS GPIO")
	f.UintVar(&runPins.dcs, "pin-dcs", 6, "VS1053 XDCS GPIO")
	f.UintVar(&runPins.dreq, "pin-dreq", 13, "VS1053 DREQ GPIO")
	f.UintVar(&runPins.reset, "pin-reset", 19, "VS1053 XRESET GPIO")
	f.UintVar(&runPins.impulse, "pin-impulse", 17, "shutter sensor GPIO")
	f.UintVar(&runPins.leader, "pin-leader", 27, "start-mark sensor GPIO")
	f.UintVar(&runPins.led, "pin-led", 22, "status LED GPIO")
	f.UintVar(&runPins.outDetect, "pin-out-detect", 0, "audio output detect GPIO, active low (0: none)")
	rootCmd.AddCommand(runCmd)
}

// applyPatches loads the decoder firmware patch image when present.
func applyPatches(dev *vs1053.Device, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("no decoder patches", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := dev.ApplyPlugin(f)
	if err != nil {
		return fmt.Errorf("could not apply %s: %w", path, err)
	}
	log.Info("decoder patches applied", "path", path, "writes", n)
	return nil
}
