package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PDFEngine 抽象受管的外部渲染引擎。
// 实现必须跨调用复用同一个引擎实例，而不是每次请求拉起新进程。
type PDFEngine interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
	Healthy() bool
	// OpenSurfaces 返回当前打开的渲染面（page/tab）数量，供泄漏检测。
	OpenSurfaces() int
	Close() error
}

// BrowserEngine 基于 go-rod 驱动常驻无头 Chromium。
// 浏览器实例惰性初始化；互斥锁保证并发首轮请求只有一次初始化尝试，
// 初始化失败如实上报且下次调用可重试。
type BrowserEngine struct {
	mu      sync.Mutex
	browser *rod.Browser
	launch  *launcher.Launcher
	closed  bool

	binPath  string
	logger   *slog.Logger
	surfaces atomic.Int64
}

func NewBrowserEngine(logger *slog.Logger, binPath string) *BrowserEngine {
	return &BrowserEngine{
		binPath: binPath,
		logger:  logger,
	}
}

func (e *BrowserEngine) ensureBrowser() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if e.browser != nil {
		return e.browser, nil
	}

	e.logger.Info("launching headless browser for pdf rendering")

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if e.binPath != "" {
		launch = launch.Bin(e.binPath)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("%w: launch chromium: %v", ErrEngineInit, err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("%w: connect browser: %v", ErrEngineInit, err)
	}

	e.launch = launch
	e.browser = browser
	return browser, nil
}

// withSurface 是带作用域的渲染面获取：无论 fn 成功与否，
// page 都会在返回前关闭，保证不泄漏渲染面。
func (e *BrowserEngine) withSurface(fn func(page *rod.Page) error) error {
	browser, err := e.ensureBrowser()
	if err != nil {
		return err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("create render surface: %w", err)
	}
	e.surfaces.Add(1)
	defer func() {
		_ = page.Close()
		e.surfaces.Add(-1)
	}()

	return fn(page)
}

// RenderPDF 在一个短生命周期渲染面里把 HTML 栅格化为 PDF。
// 超时由调用方通过 ctx 控制；即便调用方已放弃，deadline 依然会回收渲染面。
func (e *BrowserEngine) RenderPDF(ctx context.Context, html string) (data []byte, err error) {
	err = e.withSurface(func(page *rod.Page) error {
		page = page.Context(ctx)

		if err := page.SetDocumentContent(html); err != nil {
			return fmt.Errorf("set document content: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("wait load: %w", err)
		}

		reader, err := page.PDF(&proto.PagePrintToPDF{
			PrintBackground:   true,
			PaperWidth:        float64Ptr(8.27),
			PaperHeight:       float64Ptr(11.69),
			MarginTop:         float64Ptr(0),
			MarginBottom:      float64Ptr(0),
			MarginLeft:        float64Ptr(0),
			MarginRight:       float64Ptr(0),
			PreferCSSPageSize: true,
		})
		if err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		defer func() {
			_ = reader.Close()
		}()

		data, err = io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read pdf bytes: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, err
	}
	return data, nil
}

// Healthy 报告引擎当前是否可用。
func (e *BrowserEngine) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.browser != nil
}

func (e *BrowserEngine) OpenSurfaces() int {
	return int(e.surfaces.Load())
}

// Close 关闭浏览器并清理临时资源，幂等。
func (e *BrowserEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	if e.launch != nil {
		e.launch.Cleanup()
		e.launch = nil
	}
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func float64Ptr(v float64) *float64 { return &v }

var _ PDFEngine = (*BrowserEngine)(nil)
