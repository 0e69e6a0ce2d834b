package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/apidecl/internal/config"
	"github.com/yourorg/apidecl/internal/filter"
	"github.com/yourorg/apidecl/internal/generator"
	"github.com/yourorg/apidecl/internal/har"
	"github.com/yourorg/apidecl/internal/server"
	"github.com/yourorg/apidecl/internal/store"
	"github.com/yourorg/apidecl/internal/yapi"
	"github.com/yourorg/apidecl/pkg/types"
)

const defaultConfigContent = `yapi:
  base_url: ""
  token: ""
  timeout_seconds: 30
  max_retries: 3

generate:
  top_name: "Struct"
  discard_top: false
  export: false
  indent: "  "
  max_depth: 64
  description_fallback: false
  inline_nested: false

output:
  dir: "./output"
  formats:
    - typescript

filter:
  ignore_extensions:
    - .js
    - .css
    - .png
    - .jpg
    - .gif
    - .svg
    - .woff
    - .woff2
    - .ico
    - .map
  ignore_content_types:
    - text/html
    - text/css
    - image/*
    - font/*
    - application/javascript
  ignore_paths:
    - /static/
    - /assets/
    - /favicon

server:
  host: "127.0.0.1"
  port: 3000
  cors_extension_id: ""

log:
  level: "info"
`

type rootOptions struct {
	cfgPath string
	verbose bool
	debug   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "apidecl",
		Short:         "Generate interface declarations from YApi schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug output")

	root.AddCommand(newInitCmd())
	root.AddCommand(newGenCmd(opts))
	root.AddCommand(newHARCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newDeleteCmd(opts))

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.apidecl directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			baseDir := filepath.Join(home, ".apidecl")
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			dbPath := filepath.Join(baseDir, "apidecl.db")
			s, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", dbPath)
			fmt.Fprintln(cmd.OutOrStdout(), "please update yapi.base_url in", cfgFile)
			return nil
		},
	}
}

// env bundles what every command needs after loading config.
type env struct {
	cfg    *config.Config
	store  *store.SQLiteStore
	logger *slog.Logger
}

func setup(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, opts.verbose, opts.debug)
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "path", cfg.Store.Path)
	return &env{cfg: cfg, store: st, logger: logger}, nil
}

func (e *env) yapiClient() *yapi.Client {
	if strings.TrimSpace(e.cfg.YApi.BaseURL) == "" {
		return nil
	}
	return &yapi.Client{
		BaseURL:    e.cfg.YApi.BaseURL,
		Token:      e.cfg.YApi.Token,
		MaxRetries: e.cfg.YApi.MaxRetries,
		HTTPClient: newHTTPClient(e.cfg.YApi.TimeoutSeconds),
		Logger:     e.logger,
	}
}

func (e *env) progress(stage string) {
	e.logger.Info(stage)
}

func newGenCmd(opts *rootOptions) *cobra.Command {
	var (
		id         int64
		pageURL    string
		file       string
		sample     string
		kind       string
		name       string
		discardTop bool
		export     bool
		noCache    bool
		write      bool
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate declarations from a YApi interface, schema file or sample payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := 0
			for _, set := range []bool{id != 0, pageURL != "", file != "", sample != ""} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("exactly one of --id, --url, --file or --sample is required")
			}
			body := types.Body(kind)
			if !body.Valid() {
				return fmt.Errorf("--kind must be request or response, got %q", kind)
			}

			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()

			gen := &generator.Generator{
				Store:    e.store,
				Options:  e.cfg.TransformOptions(),
				NoCache:  noCache,
				Progress: e.progress,
			}
			if cmd.Flags().Changed("name") {
				gen.Options.TopName = name
			}
			if cmd.Flags().Changed("discard-top") {
				gen.Options.DiscardTop = discardTop
			}
			if cmd.Flags().Changed("export") {
				gen.Options.Render.Export = export
			}

			var sn *types.Snippet
			switch {
			case file != "":
				sn, err = gen.FromFile(file, body)
			case sample != "":
				var raw []byte
				raw, err = readInput(cmd.InOrStdin(), sample)
				if err != nil {
					return err
				}
				sn, err = gen.FromSample(raw, sample)
			default:
				if pageURL != "" {
					if id, err = yapi.ParseInterfaceURL(pageURL); err != nil {
						return err
					}
				}
				if client := e.yapiClient(); client != nil {
					gen.Fetcher = client
				} else if noCache {
					if err := e.cfg.ValidateFetch(); err != nil {
						return err
					}
				}
				sn, err = gen.FromInterface(cmd.Context(), id, body)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), sn.Text)
			if write {
				if err := e.cfg.ValidateOutput(); err != nil {
					return err
				}
				if err := generator.Render([]types.Snippet{*sn}, e.cfg.Output.Formats, e.cfg.Output.Dir); err != nil {
					return err
				}
				e.logger.Info("output written", "dir", e.cfg.Output.Dir)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "YApi interface id")
	cmd.Flags().StringVar(&pageURL, "url", "", "YApi interface page URL")
	cmd.Flags().StringVar(&file, "file", "", "JSON or YAML schema file")
	cmd.Flags().StringVar(&sample, "sample", "", "sample JSON payload file, - for stdin")
	cmd.Flags().StringVar(&kind, "kind", string(types.BodyResponse), "body to transform: request or response")
	cmd.Flags().StringVar(&name, "name", "", "top-level declaration name")
	cmd.Flags().BoolVar(&discardTop, "discard-top", false, "omit the top-level declaration")
	cmd.Flags().BoolVar(&export, "export", false, "prefix declarations with export")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "refetch the interface even if cached")
	cmd.Flags().BoolVar(&write, "write", false, "also write output files in the configured formats")
	return cmd
}

func newHARCmd(opts *rootOptions) *cobra.Command {
	var harPath string
	cmd := &cobra.Command{
		Use:   "har",
		Short: "Generate declarations for every JSON call in a HAR capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()
			if err := e.cfg.ValidateOutput(); err != nil {
				return err
			}

			exchanges, err := har.Parse(harPath)
			if err != nil {
				return err
			}
			filtered := filter.Apply(exchanges, e.cfg.Filter)
			e.logger.Info("har parsed", "exchanges", len(exchanges), "kept", len(filtered))

			gen := &generator.Generator{
				Store:    e.store,
				Options:  e.cfg.TransformOptions(),
				Progress: e.progress,
			}
			snippets, err := gen.FromHAR(filtered)
			if err != nil {
				return err
			}
			if err := generator.Render(snippets, e.cfg.Output.Formats, e.cfg.Output.Dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d snippets into %s\n", len(snippets), e.cfg.Output.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&harPath, "har", "", "HAR file path")
	_ = cmd.MarkFlagRequired("har")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()

			if cmd.Flags().Changed("host") {
				e.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				e.cfg.Server.Port = port
			}

			var fetcher generator.Fetcher
			if client := e.yapiClient(); client != nil {
				fetcher = client
			} else {
				e.logger.Warn("yapi.base_url not set, serving cached interfaces only")
			}
			srv, err := server.New(e.cfg, e.store, fetcher, e.logger)
			if err != nil {
				return err
			}
			addr := net.JoinHostPort(e.cfg.Server.Host, strconv.Itoa(e.cfg.Server.Port))
			e.logger.Info("listening", "addr", "http://"+addr)
			return srv.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var interfaces bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated snippets or cached interfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			if interfaces {
				list, err := e.store.ListInterfaces()
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tPROJECT\tMETHOD\tPATH\tTITLE\tFETCHED")
				for _, itf := range list {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", itf.ID, itf.ProjectID, itf.Method, itf.Path, itf.Title, itf.FetchedAt.Local().Format(time.DateTime))
				}
				return nil
			}
			list, err := e.store.ListSnippets()
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tSOURCE\tREF\tBODY\tNAME\tCREATED")
			for _, sn := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", sn.ID, sn.Source, sn.Ref, sn.Body, sn.TopName, sn.CreatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&interfaces, "interfaces", false, "list cached YApi interfaces instead of snippets")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var snippetID int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a generated snippet",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()
			sn, err := e.store.GetSnippet(snippetID)
			if err != nil {
				return fmt.Errorf("snippet %d: %w", snippetID, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sn.Text)
			return nil
		},
	}
	cmd.Flags().Int64Var(&snippetID, "snippet", 0, "snippet id")
	_ = cmd.MarkFlagRequired("snippet")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var interfaceID int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a cached interface and its snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.store.Close()
			if err := e.store.DeleteInterface(interfaceID); err != nil {
				return fmt.Errorf("interface %d: %w", interfaceID, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted interface", interfaceID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&interfaceID, "interface", 0, "interface id")
	_ = cmd.MarkFlagRequired("interface")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
