package auth_test

import (
	"net/http/httptest"
	"testing"

	"flowmaster/internal/auth"
)

const chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestNewExtraContextFromRequest(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("User-Agent", chromeWindowsUA)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.RemoteAddr = "10.0.0.2:51234"

	extra := auth.NewExtraContext(req)
	if extra.IP != "203.0.113.7" {
		t.Fatalf("expected first forwarded ip, got %q", extra.IP)
	}
	if extra.Browser != "Chrome" {
		t.Fatalf("expected Chrome, got %q", extra.Browser)
	}
	if extra.OS != "Windows" {
		t.Fatalf("expected Windows, got %q", extra.OS)
	}
	if extra.LoginTime.IsZero() {
		t.Fatalf("expected login time set")
	}
}

func TestNewExtraContextFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "192.0.2.1:40000"

	extra := auth.NewExtraContext(req)
	if extra.IP != "192.0.2.1" {
		t.Fatalf("expected remote addr host, got %q", extra.IP)
	}
}

func TestBrowserFamilyOrdering(t *testing.T) {
	// Edge 的 UA 同时包含 Chrome 标识，必须优先识别为 Edge
	edgeUA := chromeWindowsUA + " Edg/120.0.0.0"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", edgeUA)

	if extra := auth.NewExtraContext(req); extra.Browser != "Edge" {
		t.Fatalf("expected Edge, got %q", extra.Browser)
	}
}
