package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/config"
	"github.com/skdltmxn/dbgtypes/internal/logging"
	"github.com/skdltmxn/dbgtypes/loader"
)

// cli carries the state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string
	pretty     bool
	format     string
	endianness string
	arrayStyle string
	include    []string
	exclude    []string

	cfg    *config.Config
	logger zerolog.Logger
	output io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "dbgtypes",
		Short: "Debug-info type graph inspector",
		Long: `dbgtypes reads DWARF (ELF) or CodeView (PDB) debug information and
builds the graph of global and static variables and the types they use.

It can list variables with their addresses, dump the resolved type table,
expand a variable into its members and array elements, and report types
whose definitions disagree between compilation units.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&c.pretty, "pretty", true, "human-readable log output")
	flags.StringVarP(&c.format, "output", "o", "", "output format (text, yaml)")
	flags.StringVar(&c.endianness, "endianness", "", "bitfield byte order (auto, little, big)")
	flags.StringVar(&c.arrayStyle, "array-style", "", "array element naming (new, old)")
	flags.StringSliceVar(&c.include, "include", nil, "only keep variables matching these names or patterns")
	flags.StringSliceVar(&c.exclude, "exclude", nil, "drop variables matching these names or patterns")

	root.AddCommand(
		c.infoCmd(),
		c.varsCmd(),
		c.typesCmd(),
		c.walkCmd(),
		c.dupsCmd(),
		c.diagCmd(),
	)
	return root
}

// setup loads the configuration and lets explicitly set flags override it.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty = c.pretty
	}
	if flags.Changed("output") {
		cfg.Output = c.format
	}
	if flags.Changed("endianness") {
		cfg.Endianness = c.endianness
	}
	if flags.Changed("array-style") {
		cfg.ArrayStyle = c.arrayStyle
	}
	if flags.Changed("include") {
		cfg.Include = c.include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = c.exclude
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.output = cmd.OutOrStdout()
	c.logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (c *cli) load(path string) (*debuginfo.DebugData, error) {
	data, err := loader.Load(path, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return data, nil
}

func (c *cli) yaml() bool {
	return c.cfg.Output == config.OutputYAML
}

func (c *cli) writeYAML(v any) error {
	enc := yaml.NewEncoder(c.output)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// typeName is the display name of the type stored under id.
func typeName(data *debuginfo.DebugData, id debuginfo.TypeID) string {
	t, ok := data.LookupType(id)
	if !ok {
		return "?"
	}
	if t.Name != "" {
		return t.Name
	}
	return debuginfo.KindName(t.DataType)
}
