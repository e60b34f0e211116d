package snapshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"event-dashboard/utils"
)

// Capturer renders a dashboard URL in headless Chrome and saves a PNG.
type Capturer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// New creates a Capturer. chromeBin normally comes from config.ChromeBin;
// when it is empty a browser is looked up on PATH and in the usual install
// locations.
func New(chromeBin string, logger *utils.Logger) *Capturer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Capturer{
		chromeBin: chromeBin,
		timeout:   60 * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Capture loads url, waits for the charts to draw and writes a full-page
// screenshot to out.
func (c *Capturer) Capture(ctx context.Context, url, out string) error {
	c.logger.Info("[snapshot] Using browser binary: %s", c.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1400, 1000),
	)
	if c.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(c.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var buf []byte
	err := c.retry.Do(ctx, "dashboard-screenshot", func() error {
		// Suppress chromedp log noise
		tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
			chromedp.FullScreenshot(&buf, 90),
		)
	})
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}
	if err := os.WriteFile(out, buf, 0644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", out, err)
	}
	c.logger.Info("[snapshot] Saved %s (%d bytes)", out, len(buf))
	return nil
}

func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
