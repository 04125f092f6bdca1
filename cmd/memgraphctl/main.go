// Command memgraphctl is the operator CLI for the memory graph: validate,
// sync, and scan as cobra subcommands, grounded on erigon's and juju's
// shared use of github.com/spf13/cobra for multi-subcommand tools.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/memgraph/memgraph/app"
	"github.com/memgraph/memgraph/docs/adapter"
	"github.com/memgraph/memgraph/logger"
	"github.com/memgraph/memgraph/reconcile"
	"github.com/memgraph/memgraph/scanner"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	logger.Configure()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "memgraphctl",
		Short: "Operate a memgraph instance: validate schemas, sync documents, scan codebases",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the memgraph configuration file")
	root.AddCommand(validateCmd(), syncCmd(), scanCmd())
	return root
}

func buildApp(cmd *cobra.Command) (*app.App, error) {
	return app.Build(cmd.Context(), cfgFile)
}

// exitCodeFor implements spec.md §6's CLI exit code contract: 0 on
// success, non-zero on a ValidationError from an explicit validate call
// and on a ConflictError when the sync strategy is "fail".
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func validateCmd() *cobra.Command {
	var label, propsJSON string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a property map against a compiled node label",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			var props map[string]any
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
					return fmt.Errorf("memgraphctl: decoding --props: %w", err)
				}
			}

			if _, err := a.Registry.ValidateNode(label, props); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitCodeFor(err))
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "node label to validate against")
	cmd.Flags().StringVar(&propsJSON, "props", "{}", "JSON-encoded property map")
	cmd.MarkFlagRequired("label")
	return cmd
}

func syncCmd() *cobra.Command {
	var docsDir, strategy, actor string
	var labels []string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the graph against a directory of rendered documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if docsDir == "" {
				docsDir = a.Config.Docs.OutputDir
			}
			strat := reconcile.Strategy(strategy)
			if strat == "" {
				strat = reconcile.Strategy(a.Config.Sync.ConflictStrategy)
			}
			fa := adapter.Resolve(a.Config.Docs.Framework)

			result, err := a.Reconcile.Sync(cmd.Context(), docsDir, fa, strat, actor, labels)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitCodeFor(err))
			}
			printJSON(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&docsDir, "docs-dir", "", "documents directory (defaults to config docs.outputDir)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "conflict resolution strategy (defaults to config sync.conflictStrategy)")
	cmd.Flags().StringVar(&actor, "actor", "memgraphctl", "actor recorded on every mutation this sync makes")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "restrict sync to these node labels")
	return cmd
}

func scanCmd() *cobra.Command {
	var target, actor string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover, parse, and ingest artifacts from a codebase target",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			opts := scanner.Options{
				Target: target, DryRun: dryRun, Actor: actor,
				Include: a.Config.Scan.Include, Exclude: a.Config.Scan.Exclude,
				Languages: a.Config.Scan.Languages, Mappings: a.Config.Scan.Mappings,
				Remote: &a.Config.Scan.Remote,
			}
			result, err := a.Scanner.Scan(cmd.Context(), opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitCodeFor(err))
			}
			printJSON(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", ".", "local path or remote repository URL to scan")
	cmd.Flags().StringVar(&actor, "actor", "memgraphctl", "actor recorded on every entity this scan ingests")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run discovery and mapping without ingesting or persisting fingerprints")
	return cmd
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
