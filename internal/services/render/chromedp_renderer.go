// -----------------------------------------------------------------------
// Page Renderer - rasterize single PDF pages to JPEG via headless Chrome
// -----------------------------------------------------------------------

package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/common"
	"github.com/ternarybob/audile/internal/interfaces"
)

// ChromeRenderer rasterizes PDF pages by splitting out the requested page
// and screenshotting it in a headless Chrome tab. Chrome's built-in PDF
// viewer does the actual rasterization.
type ChromeRenderer struct {
	pdfService interfaces.PDFService
	logger     arbor.ILogger
	config     *common.RenderConfig
	timeout    time.Duration
	tempDir    string
	seq        atomic.Uint64

	mu             sync.Mutex
	allocatorCtx   context.Context
	allocatorStop  context.CancelFunc
	browserCtx     context.Context
	browserStop    context.CancelFunc
	initialized    bool
}

// Compile-time interface assertion
var _ interfaces.PageRenderer = (*ChromeRenderer)(nil)

// NewChromeRenderer creates a page renderer. The browser is started lazily
// on first render so pure-text sessions never pay for Chrome startup.
func NewChromeRenderer(config *common.Config, pdfService interfaces.PDFService, logger arbor.ILogger) (*ChromeRenderer, error) {
	timeout, err := time.ParseDuration(config.Render.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid render timeout '%s': %w", config.Render.Timeout, err)
	}

	tempDir := filepath.Join(os.TempDir(), "audile-render")
	os.MkdirAll(tempDir, 0755)

	return &ChromeRenderer{
		pdfService: pdfService,
		logger:     logger,
		config:     &config.Render,
		timeout:    timeout,
		tempDir:    tempDir,
	}, nil
}

// RenderPage returns a JPEG of the given page (1-indexed).
func (r *ChromeRenderer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	pageBytes, err := r.pdfService.ExtractPage(ctx, pdf, page)
	if err != nil {
		return nil, fmt.Errorf("failed to isolate page %d: %w", page, err)
	}

	browserCtx, err := r.browser()
	if err != nil {
		return nil, err
	}

	tempFile := filepath.Join(r.tempDir, fmt.Sprintf("render_%d_%d.pdf", os.Getpid(), r.seq.Add(1)))
	if err := os.WriteFile(tempFile, pageBytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp page file: %w", err)
	}
	defer os.Remove(tempFile)

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	renderCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	start := time.Now()
	var jpeg []byte
	err = chromedp.Run(renderCtx,
		chromedp.Navigate("file://"+tempFile),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&jpeg, r.config.JPEGQuality),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page %d: %w", page, err)
	}

	r.logger.Debug().
		Int("page", page).
		Int("jpeg_bytes", len(jpeg)).
		Dur("duration", time.Since(start)).
		Msg("Rendered page")

	return jpeg, nil
}

// browser returns the shared headless browser context, starting it on first
// use.
func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return r.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("force-device-scale-factor", fmt.Sprintf("%g", r.config.Scale)),
	)

	allocatorCtx, allocatorStop := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocatorCtx)

	// Startup test; a broken Chrome install should fail loudly here.
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserStop()
		allocatorStop()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	r.allocatorCtx = allocatorCtx
	r.allocatorStop = allocatorStop
	r.browserCtx = browserCtx
	r.browserStop = browserStop
	r.initialized = true

	r.logger.Info().
		Float64("scale", r.config.Scale).
		Int("jpeg_quality", r.config.JPEGQuality).
		Msg("Page renderer browser started")

	return r.browserCtx, nil
}

// Close shuts down the headless browser if it was started.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil
	}

	r.browserStop()
	r.allocatorStop()
	r.initialized = false
	r.logger.Debug().Msg("Page renderer browser stopped")

	return nil
}
