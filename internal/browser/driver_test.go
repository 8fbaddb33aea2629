package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		selector string
		xpath    bool
	}{
		{selector: "#email", xpath: false},
		{selector: "input[name='q']", xpath: false},
		{selector: "//button[text()='Send']", xpath: true},
		{selector: "(//input)[2]", xpath: true},
		{selector: "  //div", xpath: true},
		{selector: "div//span", xpath: false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			loc := ParseLocator(tt.selector)
			assert.Equal(t, tt.xpath, loc.XPath)
		})
	}
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "css=#a", ParseLocator("#a").String())
	assert.Equal(t, "xpath=//a", ParseLocator("//a").String())
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Headless: true}.WithDefaults()
	assert.True(t, opts.Headless)
	assert.Equal(t, DefaultElementTimeout, opts.ElementTimeout)
	assert.Equal(t, DefaultPageLoadTimeout, opts.PageLoadTimeout)
	assert.Equal(t, DefaultWindowWidth, opts.WindowWidth)

	custom := Options{ElementTimeout: 5 * time.Second}.WithDefaults()
	assert.Equal(t, 5*time.Second, custom.ElementTimeout)
}
