package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/attrflow/attrflow/internal/telemetry"
	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/connector/registry"
	"github.com/attrflow/attrflow/pkg/logger"

	// Import all backend bindings to register them
	_ "github.com/attrflow/attrflow/pkg/connector/backends/directory"
	_ "github.com/attrflow/attrflow/pkg/connector/backends/document"
	_ "github.com/attrflow/attrflow/pkg/connector/backends/keyvalue"
	_ "github.com/attrflow/attrflow/pkg/connector/backends/relational"

	// Relational drivers selected by the connection "driver" setting
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ATTRFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("config", "attrflow.yaml")
	v.SetDefault("log-level", "info")

	root := &cobra.Command{
		Use:   "attrflow",
		Short: "attrflow - attribute resolution connector framework",
		Long: `attrflow resolves identity attributes from directory, relational,
key/value and document backends through a uniform connector contract.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{
				Level:    v.GetString("log-level"),
				Encoding: "json",
			})
		},
	}
	root.PersistentFlags().String("config", v.GetString("config"), "Path to connector configuration YAML file")
	root.PersistentFlags().String("log-level", v.GetString("log-level"), "Log level (debug, info, warn, error)")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("attrflow v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available backends",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available backends:")
			for _, backend := range registry.List() {
				fmt.Printf("  - %s\n", backend)
			}
		},
	})

	var validateTimeout time.Duration
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Initialize and validate every configured connector",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(v.GetString("config"), validateTimeout)
		},
	}
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 30*time.Second, "Per-connector validation timeout")
	root.AddCommand(validateCmd)

	var connectorID, principal, requestID string
	var upstream []string
	var resolveTimeout time.Duration
	var enableTracing bool

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve attributes for a principal through one connector",
		Long: `Resolve attributes for a principal through the named connector.

Example:
  attrflow resolve --config attrflow.yaml --connector ldap-users \
    --principal alice --attr department=engineering`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(v.GetString("config"), connectorID, principal,
				requestID, upstream, resolveTimeout, enableTracing)
		},
	}
	resolveCmd.Flags().StringVar(&connectorID, "connector", "", "Connector instance ID (required)")
	resolveCmd.Flags().StringVar(&principal, "principal", "", "Principal to resolve (required)")
	resolveCmd.Flags().StringVar(&requestID, "request-id", "", "Resolution request identifier")
	resolveCmd.Flags().StringArrayVar(&upstream, "attr", nil, "Upstream attribute as key=value (repeatable)")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 30*time.Second, "Overall resolution timeout")
	resolveCmd.Flags().BoolVar(&enableTracing, "trace", false, "Emit spans for the resolution to stdout")
	_ = resolveCmd.MarkFlagRequired("connector")
	_ = resolveCmd.MarkFlagRequired("principal")
	root.AddCommand(resolveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runValidate initializes, validates and destroys every connector in the
// configuration file, reporting per-connector outcomes.
func runValidate(configFile string, timeout time.Duration) error {
	file, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.Get().With(zap.String("component", "attrflow-cli"))
	failed := 0

	for _, cfg := range file.Connectors {
		err := checkConnector(cfg, timeout)
		if err != nil {
			failed++
			log.Error("connector validation failed",
				zap.String("connector", cfg.ID), zap.Error(err))
			fmt.Printf("FAIL  %s (%s): %v\n", cfg.ID, cfg.Backend, err)
			continue
		}
		fmt.Printf("OK    %s (%s)\n", cfg.ID, cfg.Backend)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d connectors failed validation", failed, len(file.Connectors))
	}
	return nil
}

func checkConnector(cfg *config.ConnectorConfig, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := registry.Create(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Destroy(context.Background())
	}()

	if err := conn.Initialize(ctx); err != nil {
		return err
	}
	return conn.Validate(ctx)
}

// runResolve resolves a principal through one configured connector and
// prints the attribute map as JSON.
func runResolve(configFile, connectorID, principal, requestID string,
	upstream []string, timeout time.Duration, enableTracing bool) error {
	file, err := config.Load(configFile)
	if err != nil {
		return err
	}

	var cfg *config.ConnectorConfig
	for _, c := range file.Connectors {
		if c.ID == connectorID {
			cfg = c
			break
		}
	}
	if cfg == nil {
		return fmt.Errorf("connector %q not found in %s", connectorID, configFile)
	}

	conn, err := registry.Create(cfg)
	if err != nil {
		return err
	}

	if enableTracing || cfg.Observability.EnableTracing {
		tracer, shutdown, err := telemetry.Setup("attrflow", version)
		if err != nil {
			return fmt.Errorf("tracing setup failed: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
		if traced, ok := conn.(interface{ SetTracer(trace.Tracer) }); ok {
			traced.SetTracer(tracer)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := conn.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		_ = conn.Destroy(context.Background())
	}()

	resolved, err := parseUpstream(upstream)
	if err != nil {
		return err
	}

	rc := core.NewResolutionContext(principal, requestID, resolved)
	attrs, err := conn.Resolve(ctx, rc)
	if err != nil {
		return err
	}

	output := make(map[string][]string, len(attrs))
	for _, id := range attrs.IDs() {
		output[id] = attrs.Strings(id)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// parseUpstream converts repeated key=value flags into an attribute map
func parseUpstream(pairs []string) (attribute.Map, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	resolved := attribute.NewMap()
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --attr %q, want key=value", pair)
		}
		resolved.AddStrings(key, value)
	}
	return resolved, nil
}
