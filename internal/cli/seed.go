package cli

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/emily/internal/agent/retrieval"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Index the products listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed,
	}
	RootCmd.AddCommand(cmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	items, err := readSeedFile(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	docs := make([]*schema.Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, retrieval.ProductDocument(item))
	}
	ids, err := a.indexer.Store(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("index products: %w", err)
	}

	logx.Info().Int("count", len(ids)).Str("index", appCfg.Index.Name).Msg("products indexed")
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"indexed":%d}`+"\n", len(ids))
	return nil
}
