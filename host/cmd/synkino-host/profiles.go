package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"synkino/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List projector profiles",
	Long: "List the projector profiles. The profile file is created from the built-in\n" +
		"set on first use and can be edited by hand.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, path, err := loadProfiles()
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		}
		printProfiles(cmd.OutOrStdout(), f)
		return nil
	},
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default NAME",
	Short: "Make NAME the default projector profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, path, err := loadProfiles()
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("no profile file to write")
		}
		if _, err := f.Find(args[0]); err != nil {
			return err
		}
		f.Default = args[0]
		return f.Save(path)
	},
}

func init() {
	profilesCmd.AddCommand(setDefaultCmd)
	rootCmd.AddCommand(profilesCmd)
}

func printProfiles(out io.Writer, f *profile.File) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tBLADES\tOFFSET\tP\tI\tD")
	for _, p := range f.Projector {
		mark := ""
		if p.Name == f.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			mark, p.Name, p.ShutterBladeCount, p.StartmarkOffset, p.P, p.I, p.D)
	}
	w.Flush()
}
