package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"event-dashboard/dashboard"
	"event-dashboard/services"
)

var (
	serveAddr string
	serveFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Start the web dashboard. Exports are uploaded from the browser; each
upload replaces the previous dataset and the Eventos table.

Examples:
  eventdash serve
  eventdash serve --addr :9000 --file eventos.csv`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from HTTP_ADDR)")
	serveCmd.Flags().StringVarP(&serveFile, "file", "f", "", "export to load before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session := services.NewSession()
	if serveFile != "" {
		loaded, err := a.loadFile(ctx, serveFile)
		if err != nil {
			return err
		}
		session = loaded
	}

	addr := a.cfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := dashboard.New(a.loader, session, a.insights, a.metrics, a.logger)
	srv.SetLocation(a.location)
	a.logger.Info("=== Event dashboard listening on %s ===", addr)

	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("Dashboard stopped")
	return nil
}
