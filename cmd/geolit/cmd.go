package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/geolit/geolit/internal"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool

	resolveURL string
)

var cmd = &cobra.Command{
	Use:   "geolit",
	Short: "geolit extracts place names from documents, geocodes them and serves ranked toponym tables and density maps",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [toponym ...]",
	Short: "Resolve toponyms or geocode a whole document from the command line",
	Run: func(cmd *cobra.Command, args []string) {
		runResolve(args)
	},
}

func init() {
	cmd.AddCommand(resolveCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")

	resolveCmd.Flags().StringVar(&resolveURL, "url", "", "document URL to fetch and geocode")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
