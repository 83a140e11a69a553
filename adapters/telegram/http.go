package telegram

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/net/http2"
)

// newHTTPClient returns a client whose transport negotiates HTTP/2 with the
// Bot API through x/net/http2. Deadlines come from request contexts; the
// client sets none. If http2 cannot be configured the client keeps the
// net/http defaults and the failure is logged.
func newHTTPClient(logger *slog.Logger) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if err := configureHTTP2(t); err != nil {
		logger.Warn("http2 not configured, using net/http transport defaults", "error", err)
	}
	return &http.Client{Transport: t}
}

// configureHTTP2 enables x/net/http2 on t. It fails when t already has an
// "https" round tripper registered through RegisterProtocol.
func configureHTTP2(t *http.Transport) error {
	if err := http2.ConfigureTransport(t); err != nil {
		return fmt.Errorf("configure http2: %w", err)
	}
	return nil
}
