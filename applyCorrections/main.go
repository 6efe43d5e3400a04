package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitRuntimeError = 3
)

var (
	logger  Logger
	verbose bool
	dryRun  bool
)

func init() {
	logger = NewLogger(os.Stdout, os.Stderr, 0)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress messages")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process the events without writing output files")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line. The subcommands exit by themselves on
// failure, so an error returned by cobra is a usage error: unknown command,
// bad flag or wrong number of arguments.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return ExitConfigError
	}
	return ExitSuccess
}

var rootCmd = &cobra.Command{
	Use:   "applyCorrections",
	Short: "Apply muon momentum corrections to NanoAOD datasets",
	Long: `applyCorrections reads the muons of each configured dataset, applies
the momentum scale corrections and writes a copy of the dataset extended with
the corrected muons.

With correct_all the muons of every event are corrected. Otherwise only the
events with two muons of opposite charge are kept, and the dimuon invariant
mass is computed before and after the correction.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run <config-file>",
	Short: "Correct the datasets of a configuration file",
	Args:  cobra.ExactArgs(1),
	Run:   runCorrections,
}

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a configuration file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := LoadConfiguration(args[0]); err != nil {
			logger.Error(fmt.Sprintf("Error reading configuration file: %v", err))
			os.Exit(ExitConfigError)
		}
		fmt.Printf("%s is valid\n", args[0])
	},
}

func runCorrections(cmd *cobra.Command, args []string) {
	configFilename := args[0]
	configuration, err := LoadConfiguration(configFilename)
	if err != nil {
		logger.Error(fmt.Sprintf("Error reading configuration file: %v", err))
		os.Exit(ExitConfigError)
	}
	if verbose && configuration.Verbosity == 0 {
		configuration.Verbosity = 1
	}
	logger.Verbosity = configuration.Verbosity
	corrections.SetLogger(logger)

	logger.Info(fmt.Sprintf("Reading configuration file: %s", configFilename), "main")
	printConfiguration(configuration, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reader, shutdown := setupMetrics()

	corrector, err := loadCorrector(configuration.Calibration)
	if err != nil {
		logger.Error(fmt.Sprintf("Error loading calibration: %v", err))
		os.Exit(ExitRuntimeError)
	}

	start := time.Now()
	results := runAll(ctx, configuration, corrector, dryRun)
	logger.Info(fmt.Sprintf("Total time: %d ms", time.Since(start).Milliseconds()), "main")

	logMetrics(context.Background(), reader)
	if err := shutdown(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("Error stopping metrics: %v", err))
	}

	for _, result := range results {
		if result.Err != nil {
			os.Exit(ExitRuntimeError)
		}
	}
}

func loadCorrector(config corrections.CalibrationConfig) (corrections.Corrector, error) {
	switch config.Driver {
	case "":
		logger.Info("No calibration database, muons will not be modified", "main")
		return corrections.IdentityCorrector{}, nil
	case "mysql":
		dbConn, err := corrections.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		defer dbConn.Close()
		return corrections.LoadCalibration(dbConn, config.RunNumber)
	case "sqlite":
		dbConn, err := corrections.OpenCalibrationFile(config.Path)
		if err != nil {
			return nil, err
		}
		defer dbConn.Close()
		return corrections.LoadCalibration(dbConn, config.RunNumber)
	}
	return nil, fmt.Errorf("unknown calibration driver %q", config.Driver)
}
