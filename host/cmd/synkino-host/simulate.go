package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"synkino/core"
	"synkino/sim"
)

var (
	simCSV      string
	simFPS      uint8
	simSpeedPPM float64
	simRatePPM  float64
	simDuration time.Duration
	simRate     uint16
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [SCENARIO.yaml...]",
	Short: "Run sync sessions against a simulated projector and decoder",
	Long: "Run one or more YAML scenarios in virtual time and report how well the\n" +
		"soundtrack stayed in sync. Without arguments a steady screening with the\n" +
		"selected profile is simulated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var scenarios []*sim.Scenario
		if len(args) == 0 {
			sc := sim.DefaultScenario()
			p, err := selectedProfile()
			if err != nil {
				return err
			}
			sc.Profile = p
			scenarios = append(scenarios, sc)
		}
		for _, path := range args {
			sc, err := sim.LoadScenario(path)
			if err != nil {
				return err
			}
			scenarios = append(scenarios, sc)
		}

		var ticks *csv.Writer
		if simCSV != "" {
			f, err := os.Create(simCSV)
			if err != nil {
				return err
			}
			defer f.Close()
			ticks = csv.NewWriter(f)
			ticks.Write([]string{"scenario", "t_ms", "state", "impulses", "delta", "output", "frame_offset", "sync_offset"})
			defer ticks.Flush()
		}

		failed := 0
		for _, sc := range scenarios {
			applySimFlags(cmd, sc)
			if err := sc.Validate(); err != nil {
				return err
			}
			opts := sim.Options{Logger: slog.Default()}
			if ticks != nil {
				name := sc.Name
				opts.OnTick = func(at time.Duration, st core.Status) {
					ticks.Write([]string{
						name,
						strconv.FormatInt(at.Milliseconds(), 10),
						st.State.String(),
						strconv.FormatUint(uint64(st.Impulses), 10),
						strconv.Itoa(int(st.Sample.Delta)),
						strconv.Itoa(int(st.Sample.Output)),
						strconv.Itoa(int(st.Sample.FrameOffset)),
						strconv.Itoa(int(st.SyncOffset)),
					})
				}
			}
			rep, err := sim.Run(cmd.Context(), sc, opts)
			if err != nil {
				slog.Error("simulation failed", "scenario", sc.Name, "err", err, "kind", core.Classify(err).String())
				failed++
				continue
			}
			printReport(cmd.OutOrStdout(), sc, rep)
			if rep.MaxFrameOffset != 0 {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios lost sync or failed", failed, len(scenarios))
		}
		return nil
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simCSV, "csv", "", "write every control tick to this CSV file")
	f.Uint8Var(&simFPS, "fps", 0, "override the projector speed")
	f.Float64Var(&simSpeedPPM, "speed-ppm", 0, "override the projector speed error")
	f.Float64Var(&simRatePPM, "rate-ppm", 0, "override the decoder clock error")
	f.DurationVar(&simDuration, "duration", 0, "override the scenario length")
	f.Uint16Var(&simRate, "rate", 0, "override the track sample rate")
	rootCmd.AddCommand(simulateCmd)
}

// applySimFlags copies explicitly set flags over the scenario.
func applySimFlags(cmd *cobra.Command, sc *sim.Scenario) {
	f := cmd.Flags()
	if f.Changed("fps") {
		sc.Projector.FPS = simFPS
	}
	if f.Changed("speed-ppm") {
		sc.Projector.SpeedPPM = simSpeedPPM
	}
	if f.Changed("rate-ppm") {
		sc.Decoder.RatePPM = simRatePPM
	}
	if f.Changed("duration") {
		sc.Duration = simDuration
	}
	if f.Changed("rate") {
		sc.Decoder.SampleRate = simRate
	}
}

func printReport(out io.Writer, sc *sim.Scenario, rep *sim.Report) {
	fmt.Fprintf(out, "%s: %v simulated, %d impulses, %d control ticks\n",
		rep.Scenario, rep.Elapsed.Round(time.Millisecond), rep.Pulses, rep.Ticks)
	fmt.Fprintf(out, "  max |delta| after %v: %d samples\n", sc.Settle, rep.MaxDelta)
	fmt.Fprintf(out, "  max |frame offset|: %d\n", rep.MaxFrameOffset)
	fmt.Fprintf(out, "  pauses: %d, saturated ticks: %d, final trim: %d\n",
		rep.Pauses, rep.Saturations, rep.FinalTrim)
	fmt.Fprintf(out, "  film time: %s, sync offset %d impulses\n",
		core.FormatElapsed(rep.Final.Elapsed), rep.Final.SyncOffset)
}
