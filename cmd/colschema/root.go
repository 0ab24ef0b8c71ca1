package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colschema/pkg/config"
	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/formats/columnar"
	"github.com/ajitpratap0/colschema/pkg/json"
	"github.com/ajitpratap0/colschema/pkg/logger"
	"github.com/ajitpratap0/colschema/pkg/observability"
	"github.com/ajitpratap0/colschema/pkg/schemagen"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

var version = "0.1.0"

const envPrefix = "COLSCHEMA"

// app holds state shared by the subcommands of one invocation.
type app struct {
	out      io.Writer
	v        *viper.Viper
	cfg      *config.Config
	shutdown func(context.Context) error
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: viper.New()}

	root := &cobra.Command{
		Use:   "colschema",
		Short: "Derive columnar schemas from data models",
		Long: `colschema derives parquet schemas from declarative YAML data models,
in any of the one-, two- or three-level list encodings, and inspects parquet files.

Settings come from --config, then COLSCHEMA_* environment variables, then flags.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.load,
		PersistentPostRunE: a.close,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to YAML configuration file")
	pf.String("encoding", "", "List encoding: one_level, two_level or three_level")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("trace", "", "Trace exporter: none or stdout (spans go to stderr)")
	_ = a.v.BindPFlag("config", pf.Lookup("config"))
	_ = a.v.BindPFlag("schema.list_encoding", pf.Lookup("encoding"))
	_ = a.v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("tracing.exporter", pf.Lookup("trace"))

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(a.deriveCmd(), a.inspectCmd(), a.versionCmd())
	return root
}

// load builds the effective configuration and initializes logging and
// tracing.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if enc := a.v.GetString("schema.list_encoding"); enc != "" {
		cfg.Schema.ListEncoding = enc
	}
	if level := a.v.GetString("logging.level"); level != "" {
		cfg.Logging.Level = level
	}
	if exporter := a.v.GetString("tracing.exporter"); exporter != "" {
		cfg.Tracing.Exporter = exporter
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}

	tc := cfg.TracingConfig(version)
	tc.Output = cmd.ErrOrStderr()
	shutdown, err := observability.InitTracing(tc)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.shutdown = shutdown
	return nil
}

// close flushes pending spans.
func (a *app) close(cmd *cobra.Command, _ []string) error {
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(cmd.Context()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to shut down tracing")
	}
	return nil
}

func (a *app) deriveCmd() *cobra.Command {
	var modelPath, format string
	var types []string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive parquet schemas for model types",
		Long: `Derive parquet schemas for one or more types of a YAML data model.
Each --type is a type expression such as Order, Page<Line> or map<string, Line>;
several types are derived concurrently.`,
		Example: `  colschema derive --model model.yaml --type 'Page<Line>'
  colschema derive --model model.yaml --type Order --encoding two_level --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.derive(cmd.Context(), modelPath, types, format)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "Path to YAML model file (required)")
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "Type expression to derive (repeatable, required)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or fingerprint")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (a *app) derive(ctx context.Context, modelPath string, exprs []string, format string) error {
	m, err := typeinfo.LoadModel(modelPath)
	if err != nil {
		return err
	}

	roots := make([]typeinfo.Type, len(exprs))
	for i, expr := range exprs {
		if roots[i], err = m.Type(expr); err != nil {
			return err
		}
	}

	opts, err := a.cfg.BuilderOptions()
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, logger.ModelKey, modelPath)
	log := logger.WithContext(ctx)
	b := schemagen.NewBuilder(m, append(opts, schemagen.WithLogger(log))...)

	nodes, err := b.BuildAll(ctx, roots)
	if err != nil {
		return err
	}
	log.Info("derived schemas", zap.Int("count", len(nodes)), zap.Stringer("encoding", b.Encoding()))

	switch format {
	case "text":
		for i, n := range nodes {
			if i > 0 {
				fmt.Fprintln(a.out)
			}
			fmt.Fprintf(a.out, "# %s (%s, fingerprint %s)\n", exprs[i], b.Encoding(), schemagen.FingerprintString(n))
			fmt.Fprint(a.out, schemagen.Text(n))
		}
	case "json":
		infos := make([]schemagen.NodeInfo, len(nodes))
		for i, n := range nodes {
			infos[i] = schemagen.Describe(n)
		}
		var data []byte
		if len(infos) == 1 {
			data, err = json.MarshalIndent(infos[0], "", "  ")
		} else {
			data, err = json.MarshalIndent(infos, "", "  ")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode schema")
		}
		fmt.Fprintln(a.out, string(data))
	case "fingerprint":
		for i, n := range nodes {
			fmt.Fprintf(a.out, "%s\t%s\n", exprs[i], schemagen.FingerprintString(n))
		}
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown output format %q", format).
			WithDetail("allowed", "text, json, fingerprint")
	}
	return nil
}

func (a *app) inspectCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the schema, metadata and rows of a parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(args[0], rows)
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Number of rows to print as JSON lines")
	return cmd
}

func (a *app) inspect(path string, limit int) error {
	r, err := columnar.OpenFile(path, a.cfg.ReaderConfig())
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(a.out, "file: %s\n", path)
	fmt.Fprintf(a.out, "rows: %d\n", r.NumRows())
	fmt.Fprintf(a.out, "row groups: %d\n", r.NumRowGroups())
	if enc, ok := r.Metadata(columnar.MetaListEncoding); ok {
		fmt.Fprintf(a.out, "list encoding: %s\n", enc)
	}
	if fp, ok := r.Metadata(columnar.MetaFingerprint); ok {
		fmt.Fprintf(a.out, "fingerprint: %s\n", fp)
	}
	fmt.Fprintln(a.out, "schema:")
	fmt.Fprint(a.out, schemagen.Text(r.Schema().Root()))

	lines := json.NewLineWriter(a.out)
	for lines.Count() < limit {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := lines.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode row")
		}
	}
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version needs no configuration
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "colschema v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
