// Package browser drives a live web page. Driver is the port the step
// handlers talk to; the chromedp adapter in this package implements it.
package browser

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultElementTimeout  = 10 * time.Second
	DefaultPageLoadTimeout = 60 * time.Second
	DefaultWindowWidth     = 1920
	DefaultWindowHeight    = 1080
)

// Driver is one open browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Type waits for the element, optionally clears it, and sends text as key presses.
	Type(ctx context.Context, loc Locator, text string, clear bool) error
	// SetValue assigns the element's value property directly, bypassing key events.
	SetValue(ctx context.Context, loc Locator, value string) error
	Click(ctx context.Context, loc Locator) error
	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Inputs describes every input element currently on the page.
	Inputs(ctx context.Context) ([]InputInfo, error)
	Close() error
}

// Launcher opens browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Driver, error)
}

// Options configures a browser session.
type Options struct {
	Headless        bool
	ElementTimeout  time.Duration
	PageLoadTimeout time.Duration
	WindowWidth     int
	WindowHeight    int
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// NoSandbox disables Chrome's sandbox, which Chrome requires when run as root.
	NoSandbox bool
}

// WithDefaults fills zero fields with their defaults.
func (o Options) WithDefaults() Options {
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = DefaultElementTimeout
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = DefaultPageLoadTimeout
	}
	if o.WindowWidth <= 0 {
		o.WindowWidth = DefaultWindowWidth
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = DefaultWindowHeight
	}
	return o
}

// Locator is a CSS or XPath expression that finds a page element.
type Locator struct {
	Selector string
	XPath    bool
}

// ParseLocator treats selectors starting with "//" or "(" as XPath and
// everything else as CSS.
func ParseLocator(selector string) Locator {
	s := strings.TrimSpace(selector)
	return Locator{
		Selector: s,
		XPath:    strings.HasPrefix(s, "//") || strings.HasPrefix(s, "("),
	}
}

func (l Locator) String() string {
	if l.XPath {
		return "xpath=" + l.Selector
	}
	return "css=" + l.Selector
}

// InputInfo is the subset of an input element's attributes useful for writing selectors.
type InputInfo struct {
	Type           string
	Name           string
	ID             string
	Placeholder    string
	AriaLabel      string
	AriaLabelledBy string
}
