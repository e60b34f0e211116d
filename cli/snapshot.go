package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"event-dashboard/dashboard"
	"event-dashboard/snapshot"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Load an export and save a PNG of the dashboard",
	Long: `Load an export, serve the dashboard on a loopback port and capture a
full-page screenshot with headless Chrome (CHROME_BIN or a discovered binary).

Examples:
  eventdash snapshot eventos.csv --out output/dashboard.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "output/dashboard.png", "PNG output path")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.loadFile(ctx, args[0])
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("snapshot: listen: %w", err)
	}
	srv := dashboard.New(a.loader, session, a.insights, nil, a.logger)
	srv.SetLocation(a.location)
	httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = httpSrv.Serve(ln) }()
	defer httpSrv.Close()

	url := "http://" + ln.Addr().String() + "/"
	return snapshot.New(a.cfg.ChromeBin, a.logger).Capture(ctx, url, snapshotOut)
}
