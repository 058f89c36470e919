// Command presentation serves the blog and offers helpers for querying the
// Sanity GraphQL API and inspecting stega-encoded strings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	presentation "github.com/sanity-io/demo-graphql-presentation-nextjs"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/cache"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "presentation",
	Short:         "Blog front end for the Sanity GraphQL API with visual editing",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := presentation.LoadConfig(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := presentation.New(cfg, presentation.WithLogger(logger))
		return app.Start(ctx)
	},
}

var (
	fetchPerspective string
	fetchStega       bool
	fetchVars        []string
	fetchNoCache     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <file|->",
	Short: "Run a GraphQL query and print the result",
	Long: `Run the GraphQL query read from a file, or stdin for "-", through the same
exchange pipeline the site uses and print the JSON result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		params, err := parseVars(fetchVars)
		if err != nil {
			return err
		}
		perspective, err := sanity.ParsePerspective(fetchPerspective)
		if err != nil {
			return err
		}
		cfg, err := presentation.LoadConfig(configPath)
		if err != nil {
			return err
		}

		store, err := cache.Open(cmd.Context(), cfg.CacheURL, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		factory, err := sanity.NewFactory(cfg.Sanity,
			sanity.WithLogger(logger),
			sanity.WithResultCache(store, cfg.CacheTTL),
		)
		if err != nil {
			return err
		}
		fetcher := sanity.NewFetcher(sanity.NewClientCache(factory), cfg.PreviewDeployment)
		req := sanity.FetchRequest{Query: query, Params: params, Perspective: perspective}
		if cmd.Flags().Changed("stega") {
			req.Stega = &fetchStega
		}
		if fetchNoCache {
			req.Policy = sanity.NetworkOnly
		}

		res, err := fetcher.Fetch(cmd.Context(), req)
		if err != nil {
			return err
		}
		logger.Debug("fetched",
			zap.String("perspective", string(perspective)),
			zap.Bool("cached", res.Cached),
			zap.Int("errors", len(res.Errors)),
		)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Data); err != nil {
			return err
		}
		return res.Err()
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <string>",
	Short: "Show the text and edit payload hidden in a stega-encoded string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleaned, encoded := stega.Split(args[0])
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "text: %s\n", cleaned)
		if encoded == "" {
			fmt.Fprintln(out, "no stega payload")
			return nil
		}
		payload, err := stega.Decode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "origin: %s\nhref: %s\n", payload.Origin, payload.Href)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "presentation %s\n", version)
	},
}

func readQuery(stdin io.Reader, name string) (string, error) {
	var (
		raw []byte
		err error
	)
	if name == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	query := strings.TrimSpace(string(raw))
	if query == "" {
		return "", fmt.Errorf("read query: %s is empty", name)
	}
	return query, nil
}

// parseVars turns k=v pairs into query variables. Values that parse as JSON
// keep their JSON type; anything else is a string.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q, want key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			vars[k] = decoded
		} else {
			vars[k] = v
		}
	}
	return vars, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	fetchCmd.Flags().StringVarP(&fetchPerspective, "perspective", "p", string(sanity.PerspectivePublished), "published or previewDrafts")
	fetchCmd.Flags().BoolVar(&fetchStega, "stega", false, "Encode edit metadata into strings")
	fetchCmd.Flags().BoolVar(&fetchNoCache, "no-cache", false, "Skip the result cache and always hit the API")
	fetchCmd.Flags().StringArrayVar(&fetchVars, "var", nil, "Query variable as key=value (repeatable)")

	rootCmd.AddCommand(serveCmd, fetchCmd, decodeCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
