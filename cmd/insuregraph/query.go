package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insuregraph/insuregraph/internal/pipeline"
)

var (
	queryMaxHops int
	queryTopK    int
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a single policy question and print the result as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryMaxHops, "max-hops", 0,
		"Graph traversal depth bound (0 uses the default)")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0,
		"Vector retrieval result bound (0 uses the default)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	result, err := rt.pipeline.RunQuery(ctx, strings.Join(args, " "), pipeline.Options{
		MaxHops: queryMaxHops,
		TopK:    queryTopK,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
