package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/trellis-memory/graph"
	"github.com/jacentio/trellis-memory/table"
)

const envPrefix = "GRAPHMEM"

var rootCmd = &cobra.Command{
	Use:          "graphmem",
	Short:        "Workspace-scoped knowledge graph memory backed by DynamoDB",
	Long:         longRoot,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("backend", "dynamodb", "Table backend: dynamodb or memory")
	flags.String("table-prefix", "", "Prefix prepended to every physical table name")
	flags.String("region", "", "AWS region (defaults to the SDK's resolution chain)")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	flags.Bool("claim-natural-keys", true, "Guard upserts with natural-key claim rows")
	flags.Bool("consistent-read", true, "Use strongly consistent reads")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	for _, name := range []string{
		"backend", "table-prefix", "region", "endpoint",
		"claim-natural-keys", "consistent-read", "log-level",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(serveCmd, streamCmd)
}

// initConfig binds GRAPHMEM_* environment variables, e.g. GRAPHMEM_TABLE_PREFIX.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	// Logs go to stderr so that stdout stays free for the stdio transport.
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newBackend builds the table backend selected by --backend.
func newBackend(ctx context.Context, logger *slog.Logger) (table.Backend, error) {
	switch backend := viper.GetString("backend"); backend {
	case "memory":
		logger.Warn("using in-memory backend; data is lost on exit")
		return table.NewMemory(), nil
	case "dynamodb":
		var opts []func(*awsconfig.LoadOptions) error
		if region := viper.GetString("region"); region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if endpoint := viper.GetString("endpoint"); endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})

		tableConfig := table.DefaultConfig()
		tableConfig.TablePrefix = viper.GetString("table-prefix")
		tableConfig.ConsistentRead = viper.GetBool("consistent-read")
		graphConfig := graph.DefaultConfig()
		tableConfig.StreamTables = []string{graphConfig.EntitiesTable, graphConfig.RelationsTable}
		return table.NewDynamo(client, tableConfig, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (use dynamodb or memory)", backend)
	}
}

// newService builds the graph service on the configured backend.
func newService(ctx context.Context, logger *slog.Logger) (*graph.Service, error) {
	backend, err := newBackend(ctx, logger)
	if err != nil {
		return nil, err
	}
	config := graph.DefaultConfig()
	config.ClaimNaturalKeys = viper.GetBool("claim-natural-keys")
	return graph.New(backend, config, logger), nil
}

var longRoot = `
graphmem stores a workspace-scoped knowledge graph of named, typed entities
and directed, typed relations in DynamoDB tables, and exposes it to agents as
MCP tools.

Every flag may also be set through a GRAPHMEM_ environment variable, for
example GRAPHMEM_TABLE_PREFIX=dev- or GRAPHMEM_BACKEND=memory.
`
