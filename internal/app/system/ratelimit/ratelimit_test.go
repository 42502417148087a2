package ratelimit

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if l.Remaining("a") != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining("a"))
	}
	if !l.Allow("b") {
		t.Error("other keys are independent")
	}

	l.Reset("a")
	if l.Remaining("a") != 2 {
		t.Errorf("Remaining after reset = %d, want 2", l.Remaining("a"))
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Close()

	var mu sync.Mutex
	now := time.Now()
	l.mu.Lock()
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	l.mu.Unlock()
	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request should be limited")
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	if !l.Allow("k") {
		t.Error("request after window should be allowed")
	}
}

func TestLimiter_CloseIsIdempotent(t *testing.T) {
	l := New(1, time.Second)
	l.Close()
	l.Close()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "203.0.113.1, 10.0.0.1", "", "10.0.0.2:5000", "203.0.113.1"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.2:5000", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.3:4444", "192.0.2.3"},
		{"remote without port", "", "", "192.0.2.3", "192.0.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiter(4)
	defer ll.Close()

	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Jane@Student.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, msg := ll.Check(r, "jane@student.com "); ok || msg == "" {
		t.Error("third attempt for same email should be limited with a message")
	}

	ll.ResetEmail("JANE@student.com")
	if ok, _ := ll.Check(r, "jane@student.com"); !ok {
		t.Error("attempt after reset should be allowed")
	}
}
