package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const screenshotTimeout = 10 * time.Second

// ChromeLauncher launches a local Chrome through chromedp.
type ChromeLauncher struct {
	Logger *slog.Logger
}

func (l ChromeLauncher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Launch starts Chrome and opens a tab. The session ends when Close is
// called or ctx is cancelled.
func (l ChromeLauncher) Launch(ctx context.Context, opts Options) (Driver, error) {
	opts = opts.WithDefaults()
	logger := l.logger()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(format, args...))
		}),
	)

	// An empty Run allocates the browser and the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("browser session started", "headless", opts.Headless, "element_timeout", opts.ElementTimeout)

	return &chromeDriver{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		opts:          opts,
	}, nil
}

type chromeDriver struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	opts          Options
	closed        bool
}

// run executes actions on the browser tab, bounded by timeout and by the caller's ctx.
func (d *chromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if d.closed {
		return errors.New("browser session is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return err
}

func queryOption(loc Locator) chromedp.QueryOption {
	if loc.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, d.opts.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *chromeDriver) Type(ctx context.Context, loc Locator, text string, clear bool) error {
	by := queryOption(loc)
	actions := []chromedp.Action{chromedp.WaitReady(loc.Selector, by)}
	if clear {
		actions = append(actions, chromedp.Clear(loc.Selector, by))
	}
	actions = append(actions, chromedp.SendKeys(loc.Selector, text, by))

	if err := d.run(ctx, d.opts.ElementTimeout, actions...); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) SetValue(ctx context.Context, loc Locator, value string) error {
	by := queryOption(loc)
	err := d.run(ctx, d.opts.ElementTimeout,
		chromedp.WaitReady(loc.Selector, by),
		chromedp.SetValue(loc.Selector, value, by),
	)
	if err != nil {
		return fmt.Errorf("set value of %s: %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Click(ctx context.Context, loc Locator) error {
	if err := d.run(ctx, d.opts.ElementTimeout, chromedp.Click(loc.Selector, queryOption(loc))); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, screenshotTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *chromeDriver) Inputs(ctx context.Context) ([]InputInfo, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.opts.ElementTimeout,
		chromedp.Nodes("input", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("list input elements: %w", err)
	}

	inputs := make([]InputInfo, 0, len(nodes))
	for _, node := range nodes {
		inputs = append(inputs, InputInfo{
			Type:           node.AttributeValue("type"),
			Name:           node.AttributeValue("name"),
			ID:             node.AttributeValue("id"),
			Placeholder:    node.AttributeValue("placeholder"),
			AriaLabel:      node.AttributeValue("aria-label"),
			AriaLabelledBy: node.AttributeValue("aria-labelledby"),
		})
	}
	return inputs, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (d *chromeDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	err := chromedp.Cancel(d.ctx)
	d.cancelBrowser()
	d.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
