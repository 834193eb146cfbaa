package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/emily/internal/server"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logx.Error().Err(err).Msg("failed to close backends")
		}
	}()

	router := server.NewRouter(server.Deps{
		Assistant:      a.assistant,
		Indexer:        a.indexer,
		Catalog:        a.catalog,
		AllowedOrigins: appCfg.Server.CORSAllowedOrigins,
	})
	return server.Serve(ctx, appCfg.Server.Addr, router)
}
