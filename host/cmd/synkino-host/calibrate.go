package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"synkino/core"
	"synkino/track"
	"synkino/vs1053"
)

var (
	calFPS   []uint
	calRates []uint
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Print the calibration constants for a projector profile",
	Long: "Print samples per impulse, samples per frame, rate-trim limits and the pause\n" +
		"threshold for every combination of film speed and sample rate.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := selectedProfile()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "profile %q, %d-blade shutter\n\n", p.Name, p.ShutterBladeCount)
		return printCalibration(cmd.OutOrStdout(), p.ShutterBladeCount, calFPS, calRates)
	},
}

func init() {
	calibrateCmd.Flags().UintSliceVar(&calFPS, "fps", []uint{16, 18, 24, 25}, "film speeds")
	calibrateCmd.Flags().UintSliceVar(&calRates, "rate", []uint{32000, 44100, 48000}, "sample rates")
	rootCmd.AddCommand(calibrateCmd)
}

func printCalibration(out io.Writer, blades uint8, fps, rates []uint) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "FPS\tRATE\tSAMPLES/IMPULSE\tSAMPLES/FRAME\tIMPULSES/S\tTRIM MIN\tTRIM MAX\tPAUSE AFTER\tRESAMPLER\t")
	for _, f := range fps {
		if f < track.MinFPS || f > track.MaxFPS {
			return fmt.Errorf("fps %d outside %d-%d", f, track.MinFPS, track.MaxFPS)
		}
		for _, r := range rates {
			rate := vs1053.NormalizeSampleRate(uint16(r))
			cal, err := core.NewCalibration(uint32(rate), uint8(f), blades)
			if err != nil {
				return err
			}
			lo, hi := core.OutputLimits(cal.SampleRate)
			resampler := "off"
			if core.NeedsResampler(cal.SampleRate) {
				resampler = "on"
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%.0f\t%.0f\t%dms\t%s\t\n",
				f, cal.SampleRate, cal.ImpulsesPerSamplePeriod, cal.SamplesPerFrame,
				cal.ImpulsesPerSecond, lo, hi, core.TimerToUS(cal.PauseThreshold())/1000, resampler)
		}
	}
	return w.Flush()
}
