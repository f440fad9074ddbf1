package bot

import (
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// newHTTPClient returns the client used for Bot API calls, routed through
// proxyURL when set. socks5 and http(s) proxies are supported.
func newHTTPClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{}, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create socks dialer: %w", err)
		}

		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks dialer does not support contexts")
		}

		transport.Proxy = nil
		transport.DialContext = contextDialer.DialContext
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	return &http.Client{Transport: transport}, nil
}
