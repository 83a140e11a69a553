package telegram

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"testing"
)

func TestConfigureHTTP2(t *testing.T) {
	tr := &http.Transport{}
	if err := configureHTTP2(tr); err != nil {
		t.Fatalf("configure fresh transport: %v", err)
	}
	if tr.TLSClientConfig == nil || !slices.Contains(tr.TLSClientConfig.NextProtos, "h2") {
		t.Errorf("NextProtos = %v, want h2 offered", tr.TLSClientConfig)
	}
}

func TestConfigureHTTP2AlreadyRegistered(t *testing.T) {
	tr := &http.Transport{}
	tr.RegisterProtocol("https", http.NewFileTransport(http.Dir(t.TempDir())))

	err := configureHTTP2(tr)
	if err == nil {
		t.Fatal("expected error when https is already registered")
	}
	if !strings.Contains(err.Error(), "configure http2") {
		t.Errorf("err = %v", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := newHTTPClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if c.Timeout != 0 {
		t.Errorf("client timeout = %v, want none", c.Timeout)
	}
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Errorf("transport = %T, want *http.Transport", c.Transport)
	}
}
