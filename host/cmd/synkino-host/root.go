package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"synkino/core"
	"synkino/profile"
)

var (
	verbose      bool
	profilesPath string
	profileName  string

	logLevel slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "synkino-host",
	Short: "Host tools for the Synkino projector sync engine",
	Long: "synkino-host simulates sync sessions, prints calibration tables, manages\n" +
		"projector profiles and monitors a running board over USB.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "projector profile file (default: user config dir)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "projector profile name (default: the file's default)")
}

// setupLogging installs a text slog handler and routes engine messages
// through it.
func setupLogging(debug bool) {
	if debug {
		logLevel.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
	slog.SetDefault(logger)

	core.SetDebugWriter(func(msg string) { logger.Debug(msg) })
	core.SetDebugEnabled(debug)
}

// loadProfiles reads the profile file, falling back to the built-in set
// when no user file can be created.
func loadProfiles() (*profile.File, string, error) {
	path := profilesPath
	if path == "" {
		p, err := profile.DefaultPath()
		if err != nil {
			slog.Warn("using built-in profiles", "err", err)
			return profile.Builtin(), "", nil
		}
		path = p
	}
	f, err := profile.Load(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// selectedProfile returns the profile chosen with --profile.
func selectedProfile() (profile.Profile, error) {
	f, _, err := loadProfiles()
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := f.Find(profileName)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w (see 'synkino-host profiles')", err)
	}
	return p, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
