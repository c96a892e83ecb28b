package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"github.com/HugoDaniel/sourcemapper/internal/config"
	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

// globalState holds everything a command touches outside its arguments,
// so tests can swap the filesystem, environment and streams.
type globalState struct {
	fs        afero.Fs
	getwd     func() (string, error)
	lookupEnv func(string) (string, bool)
	stdin     io.Reader
	stderr    io.Writer

	flags  rootFlags
	cfg    config.Config
	logger *logrus.Logger
	styles *styles
}

type rootFlags struct {
	configFile string
	noConfig   bool
}

func newGlobalState() *globalState {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	return &globalState{
		fs:        afero.NewOsFs(),
		getwd:     os.Getwd,
		lookupEnv: os.LookupEnv,
		stdin:     os.Stdin,
		stderr:    os.Stderr,
		cfg:       config.NewConfig(),
		logger:    logger,
		styles:    newStyles(true),
	}
}

func newRootCmd(gs *globalState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sourcemapper",
		Short: "Decode source maps and resolve generated positions",
		Long: `sourcemapper decodes Source Map v3 files and maps positions in generated
code back to the original sources. It can look up single positions, dump
every mapping, validate a map and rewrite stack traces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return gs.configure(cmd.Flags())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&gs.flags.configFile, "config", "", "Use specific config `file`")
	flags.BoolVar(&gs.flags.noConfig, "no-config", false, "Ignore config files")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text or json)")
	flags.Bool("strict-version", false, "Reject maps whose version is not 3")
	flags.Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newLookupCmd(gs))
	rootCmd.AddCommand(newMappingsCmd(gs))
	rootCmd.AddCommand(newValidateCmd(gs))
	rootCmd.AddCommand(newTraceCmd(gs))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// flagsToConfig returns the config values explicitly set on the command line.
func flagsToConfig(flags *pflag.FlagSet) config.Config {
	var cfg config.Config
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		cfg.LogLevel = null.StringFrom(v)
	}
	if flags.Changed("log-format") {
		v, _ := flags.GetString("log-format")
		cfg.LogFormat = null.StringFrom(v)
	}
	if flags.Changed("strict-version") {
		v, _ := flags.GetBool("strict-version")
		cfg.StrictVersion = null.BoolFrom(v)
	}
	if flags.Changed("no-color") {
		v, _ := flags.GetBool("no-color")
		cfg.NoColor = null.BoolFrom(v)
	}
	return cfg
}

// configure consolidates the configuration and sets up logging and colors.
func (gs *globalState) configure(flags *pflag.FlagSet) error {
	startDir, err := gs.getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, path, err := config.Consolidate(config.Sources{
		Fs:       gs.fs,
		StartDir: startDir,
		File:     gs.flags.configFile,
		NoFile:   gs.flags.noConfig,
		Env:      gs.lookupEnv,
		Flags:    flagsToConfig(flags),
	})
	if err != nil {
		return err
	}

	// https://no-color.org/: any value, even empty, disables colors
	if _, ok := gs.lookupEnv("NO_COLOR"); ok && !flags.Changed("no-color") {
		cfg.NoColor = null.BoolFrom(true)
	}
	gs.cfg = cfg

	level, _ := logrus.ParseLevel(cfg.LogLevel.String)
	gs.logger.SetOutput(gs.stderr)
	gs.logger.SetLevel(level)
	switch cfg.LogFormat.String {
	case "json":
		gs.logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		gs.logger.SetFormatter(&logrus.TextFormatter{DisableColors: cfg.NoColor.Bool})
	}

	gs.styles = newStyles(!cfg.NoColor.Bool)

	if path != "" {
		gs.logger.WithField("path", path).Debug("Using config file")
	}
	return nil
}

// apiOptions returns the decode options for the current configuration.
func (gs *globalState) apiOptions() api.Options {
	return api.Options{
		StrictVersion: gs.cfg.StrictVersion.Bool,
		Logger:        gs.logger,
	}
}

// readInput reads path from the filesystem, or stdin when path is "-".
func (gs *globalState) readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(gs.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		wd, err := gs.getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		resolved = filepath.Join(wd, resolved)
	}

	data, err := afero.ReadFile(gs.fs, resolved)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// loadMap reads and decodes the source map at path.
func (gs *globalState) loadMap(path string) (*api.Cache, error) {
	text, err := gs.readInput(path)
	if err != nil {
		return nil, err
	}
	cache, err := api.ConsumeWithOptions(text, gs.apiOptions())
	if err != nil {
		gs.logger.WithError(err).WithField("path", path).Debug("Failed to load source map")
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cache, nil
}

// styles holds color formatters for human output.
type styles struct {
	position *color.Color
	source   *color.Color
	name     *color.Color
	ok       *color.Color
	warning  *color.Color
	error    *color.Color
	dim      *color.Color
}

// newStyles creates color formatters; enabled=false honors --no-color.
func newStyles(enabled bool) *styles {
	s := &styles{
		position: color.New(color.FgHiBlue),
		source:   color.New(color.Bold, color.FgHiWhite),
		name:     color.New(color.FgYellow),
		ok:       color.New(color.FgGreen),
		warning:  color.New(color.FgYellow),
		error:    color.New(color.FgRed),
		dim:      color.New(color.Faint),
	}

	if !enabled {
		for _, c := range []*color.Color{s.position, s.source, s.name, s.ok, s.warning, s.error, s.dim} {
			c.DisableColor()
		}
	}
	return s
}
