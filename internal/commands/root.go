// internal/commands/root.go
package flopsbench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/mwiater/flopsbench/internal/appconfig"
	"github.com/mwiater/flopsbench/internal/backend"
	"github.com/mwiater/flopsbench/internal/benchmark"
	"github.com/mwiater/flopsbench/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
)

var (
	cfgFile       string
	backendFlag   backend.Selector
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"

	runBenchmark = benchmark.Run
)

// rootCmd runs the benchmark when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "flopsbench",
	Short: "Measure matrix-multiplication throughput (GFLOPS) on a compute backend",
	Long: `flopsbench multiplies two random square matrices repeatedly on the selected
backend and reports the elapsed wall-clock time and the resulting GFLOPS.`,
	Example: `  flopsbench --backend cpu
  flopsbench --backend highway --matrix-size 2048 --repeat-times 20
  flopsbench list backends`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		if cfg.Backend == "" {
			return fmt.Errorf(`required flag(s) "backend" not set (possible values: %s)`, strings.Join(backend.Names(), ", "))
		}
		// Parsing succeeded; failures past this point are not usage errors.
		cmd.SilenceUsage = true
		_, err := runBenchmark(cmd.Context(), *cfg, cmd.OutOrStdout())
		return err
	},
}

// persistentPreRun loads and validates the configuration before any command runs.
// It is attached to rootCmd in init to avoid an initialization cycle through
// ensureConfigLoaded.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if err := ensureConfigLoaded(); err != nil {
		return err
	}

	for _, name := range []string{"debug", "jsonMode"} {
		if !cmd.Flags().Changed(name) {
			val := viper.GetBool(name)
			_ = cmd.Flags().Set(name, strconv.FormatBool(val))
		}
	}

	var cfg appconfig.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.ConfigPath = viper.ConfigFileUsed()
	if err := appconfig.Validate(cfg, backend.Names()); err != nil {
		return err
	}
	currentConfig = &cfg

	if err := logging.Init(cfg.LogFilePath()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetDebug(cfg.Debug)
	logging.LogValue("Parsed arguments", cfg)

	return nil
}

// Execute runs the root command and exits the process through atexit so
// registered cleanup (the log file) runs on every exit path.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)
	atexit.Register(func() { _ = logging.Close() })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code = 1
	}
	stop()
	atexit.Exit(code)
}

func init() {
	rootCmd.PersistentPreRunE = persistentPreRun
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (JSON or YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("jsonMode", false, "print the result as JSON instead of a summary line")
	rootCmd.PersistentFlags().String("export", "", "write the result to this JSON or YAML file (or directory)")
	rootCmd.PersistentFlags().String("logFile", "", "also append logs to this file")

	rootCmd.Flags().Int("matrix-size", appconfig.DefaultMatrixSize, "size of the matrix")
	rootCmd.Flags().Int("repeat-times", appconfig.DefaultRepeatTimes, "repeat times")
	rootCmd.Flags().Var(&backendFlag, "backend", fmt.Sprintf("backend to use (one of: %s)", strings.Join(backend.Names(), ", ")))
	rootCmd.Flags().Uint64("seed", 0, "seed for the random operands (0 = time based)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("jsonMode", rootCmd.PersistentFlags().Lookup("jsonMode"))
	_ = viper.BindPFlag("export", rootCmd.PersistentFlags().Lookup("export"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("matrixSize", rootCmd.Flags().Lookup("matrix-size"))
	_ = viper.BindPFlag("repeatTimes", rootCmd.Flags().Lookup("repeat-times"))
	_ = viper.BindPFlag("backend", rootCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("seed", rootCmd.Flags().Lookup("seed"))

	viper.SetEnvPrefix(appconfig.EnvPrefix)
	viper.AutomaticEnv()
}

// initConfig points viper at the config file selected by --config.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file is only an
// error when --config was given explicitly.
func ensureConfigLoaded() error {
	viper.SetDefault("matrixSize", appconfig.DefaultMatrixSize)
	viper.SetDefault("repeatTimes", appconfig.DefaultRepeatTimes)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the merged configuration of the current invocation.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
