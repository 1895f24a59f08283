// infraplan CLI - infrastructure planning from free-text requirements
//
// Usage:
//   infraplan plan "web app, 5000 users, $300/month, AWS" [options]
//   infraplan graph "hybrid setup across AWS and Azure" --format mermaid
//   infraplan serve --port 8080 --catalog rates.yaml --watch
//   infraplan pricing sync
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"infra-planner/api"
	"infra-planner/db/clickhouse"
	"infra-planner/db/ingestion"
	"infra-planner/internal/planner"
	"infra-planner/internal/pricing"
	"infra-planner/internal/visualize"
	apipkg "infra-planner/pkg/api"
	"infra-planner/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	chDefaults := clickhouse.DefaultConfig()

	app := &cli.App{
		Name:    "infraplan",
		Usage:   "Plan cloud infrastructure and generate Terraform from free-text requirements",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "Path to a YAML pricing catalog overriding built-in rates",
				EnvVars: []string{"INFRAPLAN_CATALOG"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   chDefaults.Host,
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   chDefaults.Port,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   chDefaults.Database,
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   chDefaults.Username,
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   chDefaults.Password,
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			planCommand(),
			graphCommand(),
			serveCommand(),
			pricingCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadHolder builds the pricing catalog snapshot for a run: built-in rates,
// optionally overridden by a YAML catalog file.
func loadHolder(c *cli.Context) (*pricing.Holder, error) {
	catalog := pricing.DefaultCatalog()
	if path := c.String("catalog"); path != "" {
		loaded, err := pricing.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = loaded
	}
	return pricing.NewHolder(catalog), nil
}

func openStore(c *cli.Context) (*clickhouse.Store, error) {
	return clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
}

// =============================================================================
// PLAN COMMAND
// =============================================================================

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Plan infrastructure from a free-text requirement",
		ArgsUsage: "\"<requirement text>\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session identifier to carry through the response",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, markdown)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Directory to write the generated Terraform files to",
			},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	logger := platform.InitLogger()

	holder, err := loadHolder(c)
	if err != nil {
		return err
	}

	svc := planner.NewService(holder, logger)
	result, err := svc.Plan(strings.Join(c.Args().Slice(), " "), c.String("session"))
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	if dir := c.String("out"); dir != "" {
		if err := writeArtifacts(dir, result.TerraformCode); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d Terraform files to %s\n", len(result.TerraformCode), dir)
	}

	switch c.String("format") {
	case "json":
		return outputJSON(result)
	case "markdown":
		return outputMarkdown(result)
	default:
		return outputTable(result)
	}
}

func writeArtifacts(dir string, artifacts apipkg.CodeArtifactSet) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for name, content := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

func outputJSON(result *apipkg.PlanningResponse) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputTable(result *apipkg.PlanningResponse) error {
	fmt.Println()
	fmt.Println(result.Content)
	fmt.Printf("Estimated monthly cost: $%s\n", result.CostEstimate.StringFixed(2))
	fmt.Printf("Confidence:             %.0f%%\n", result.Confidence*100)
	fmt.Println()

	fmt.Println("Reasoning:")
	for _, step := range result.ReasoningSteps {
		fmt.Printf("  - %s\n", step)
	}
	fmt.Println()

	fmt.Println("Implementation steps:")
	for i, step := range result.ImplementationSteps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	fmt.Println()

	names := make([]string, 0, len(result.TerraformCode))
	for name := range result.TerraformCode {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("Generated files: %s\n", strings.Join(names, ", "))
	return nil
}

func outputMarkdown(result *apipkg.PlanningResponse) error {
	fmt.Println("## Infrastructure Plan")
	fmt.Println()
	fmt.Println(result.Content)
	fmt.Println()
	fmt.Println("| Metric | Value |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| **Monthly Cost** | $%s |\n", result.CostEstimate.StringFixed(2))
	fmt.Printf("| **Confidence** | %.0f%% |\n", result.Confidence*100)
	fmt.Println()

	fmt.Println("### Reasoning")
	fmt.Println()
	for _, step := range result.ReasoningSteps {
		fmt.Printf("- %s\n", step)
	}
	fmt.Println()

	fmt.Println("### Implementation Steps")
	fmt.Println()
	for i, step := range result.ImplementationSteps {
		fmt.Printf("%d. %s\n", i+1, step)
	}
	fmt.Println()

	names := make([]string, 0, len(result.TerraformCode))
	for name := range result.TerraformCode {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("### `%s`\n\n", name)
		fmt.Println("```hcl")
		fmt.Println(result.TerraformCode[name])
		fmt.Println("```")
		fmt.Println()
	}
	return nil
}

// =============================================================================
// GRAPH COMMAND
// =============================================================================

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Render the planned topology as a DOT or Mermaid graph",
		ArgsUsage: "\"<requirement text>\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "dot",
				Usage:   "Graph format (dot, mermaid)",
			},
			&cli.BoolFlag{
				Name:  "cluster",
				Usage: "Group nodes by deployment role",
			},
		},
		Action: runGraph,
	}
}

func runGraph(c *cli.Context) error {
	logger := platform.InitLogger()

	holder, err := loadHolder(c)
	if err != nil {
		return err
	}

	svc := planner.NewService(holder, logger)
	_, result, err := svc.PlanTopologyOnly(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	gen := &visualize.Generator{
		Format:        visualize.Format(c.String("format")),
		ClusterByRole: c.Bool("cluster"),
	}
	return gen.Generate(result.Topology, os.Stdout)
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the planning API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"INFRAPLAN_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"INFRAPLAN_CORS_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the catalog file on change (requires --catalog)",
			},
			&cli.BoolFlag{
				Name:    "clickhouse",
				Usage:   "Load the active catalog snapshot from ClickHouse at startup",
				EnvVars: []string{"INFRAPLAN_CLICKHOUSE"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := platform.InitLogger()

	holder, err := loadHolder(c)
	if err != nil {
		return err
	}

	var store *clickhouse.Store
	if c.Bool("clickhouse") {
		store, err = openStore(c)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer store.Close()

		catalog, err := store.LoadCatalog(context.Background(), ingestion.SourceAWSPricingAPI)
		if err != nil {
			return fmt.Errorf("failed to load catalog snapshot: %w", err)
		}
		if catalog != nil {
			holder.Swap(catalog)
			logger.Info("loaded catalog snapshot", "rates", catalog.Size())
		} else {
			logger.Warn("no active catalog snapshot, using built-in rates")
		}
	}

	if c.Bool("watch") {
		path := c.String("catalog")
		if path == "" {
			return fmt.Errorf("--watch requires --catalog")
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := pricing.Watch(ctx, path, holder, logger); err != nil {
				logger.Error("catalog watcher stopped", "error", err)
			}
		}()
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	svc := planner.NewService(holder, logger)
	server := api.NewServer(svc, store, logger, &api.Config{
		Port:           c.Int("port"),
		ReadTimeout:    api.DefaultConfig().ReadTimeout,
		WriteTimeout:   api.DefaultConfig().WriteTimeout,
		MaxRequestSize: api.DefaultConfig().MaxRequestSize,
		CORSOrigins:    corsOrigins,
	})

	return server.StartWithGracefulShutdown()
}

// =============================================================================
// PRICING COMMAND
// =============================================================================

func pricingCommand() *cli.Command {
	return &cli.Command{
		Name:  "pricing",
		Usage: "Manage pricing catalog data",
		Subcommands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch current AWS rates and store a new catalog snapshot",
				Action: func(c *cli.Context) error {
					logger := platform.InitLogger()
					ctx := context.Background()

					store, err := openStore(c)
					if err != nil {
						return fmt.Errorf("failed to connect to ClickHouse: %w", err)
					}
					defer store.Close()

					syncer, err := ingestion.NewSyncerFromEnv(ctx, store, logger)
					if err != nil {
						return err
					}

					result, err := syncer.Sync(ctx)
					if err != nil {
						return fmt.Errorf("sync failed: %w", err)
					}

					fmt.Printf("Snapshot %s active: %d rates (%d from live pricing) in %s\n",
						result.SnapshotID, result.RateCount, result.LiveUpdates, result.Duration)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective rate catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Value: "aws",
						Usage: "Cloud provider (aws, azure, gcp)",
					},
				},
				Action: func(c *cli.Context) error {
					holder, err := loadHolder(c)
					if err != nil {
						return err
					}

					provider, err := apipkg.ParseCloudProvider(c.String("provider"))
					if err != nil {
						return err
					}

					catalog := holder.Catalog()
					fmt.Printf("%-14s %-20s %12s\n", "KIND", "TIER", "MONTHLY USD")
					for _, kind := range apipkg.AllResourceKinds() {
						for tier := apipkg.TierMinimal; tier < apipkg.TierCount; tier++ {
							cost, err := catalog.MonthlyCost(provider, kind, tier)
							if err != nil {
								continue
							}
							fmt.Printf("%-14s %-20s %12s\n", kind, tier, cost.StringFixed(2))
						}
					}
					return nil
				},
			},
		},
	}
}
