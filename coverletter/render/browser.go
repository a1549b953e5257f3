package render

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// HTMLEngine prints an HTML page to PDF.
type HTMLEngine interface {
	PrintPDF(ctx context.Context, html string, geo Geometry) ([]byte, error)
}

// BrowserConfig configures the headless browser engine.
type BrowserConfig struct {
	// ControlURL attaches to an already running browser when set.
	ControlURL string
	// Bin overrides the browser binary used when launching locally.
	Bin     string
	Timeout time.Duration
}

// BrowserEngine renders through a headless Chromium driven over the
// DevTools protocol. Every call gets its own incognito context and page,
// both released before the call returns.
type BrowserEngine struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	// stopLocal kills the locally launched browser process, if any.
	stopLocal func()
}

func NewBrowserEngine(cfg BrowserConfig) *BrowserEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &BrowserEngine{cfg: cfg}
}

func (e *BrowserEngine) connect() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		if _, err := e.browser.Version(); err == nil {
			return e.browser, nil
		}
		_ = e.resetLocked()
	}

	controlURL := e.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Leakless(false)
		if e.cfg.Bin != "" {
			l = l.Bin(e.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		e.stopLocal = l.Cleanup
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		_ = e.resetLocked()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	e.browser = b
	return b, nil
}

type renderTarget struct {
	page    *rod.Page
	release func()
}

func (e *BrowserEngine) acquire(ctx context.Context) (*renderTarget, error) {
	browser, err := e.connect()
	if err != nil {
		return nil, err
	}
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	timed, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	return &renderTarget{
		page: page.Context(timed),
		release: func() {
			cancel()
			_ = page.Close()
			_ = incognito.Close()
		},
	}, nil
}

// PrintPDF loads html into a fresh page and prints it at the page geometry.
func (e *BrowserEngine) PrintPDF(ctx context.Context, html string, geo Geometry) ([]byte, error) {
	target, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer target.release()

	if err := target.page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := target.page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}
	stream, err := target.page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      float64Ptr(geo.inches(geo.Width)),
		PaperHeight:     float64Ptr(geo.inches(geo.Height)),
		MarginTop:       float64Ptr(geo.inches(geo.Margin)),
		MarginBottom:    float64Ptr(geo.inches(geo.Margin)),
		MarginLeft:      float64Ptr(geo.inches(geo.Margin)),
		MarginRight:     float64Ptr(geo.inches(geo.Margin)),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts down the browser connection and any locally launched process.
func (e *BrowserEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetLocked()
}

func (e *BrowserEngine) resetLocked() error {
	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	if e.stopLocal != nil {
		e.stopLocal()
		e.stopLocal = nil
	}
	return err
}

func float64Ptr(v float64) *float64 { return &v }
