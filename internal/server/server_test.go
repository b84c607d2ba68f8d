package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubHandler struct {
	registered bool
}

func (s *stubHandler) Register(e *echo.Echo) {
	s.registered = true
	e.GET("/stub", func(c echo.Context) error {
		return c.String(http.StatusOK, "stub")
	})
}

func TestNewServerRegistersHandlers(t *testing.T) {
	t.Parallel()

	h := &stubHandler{}
	srv := NewServer(":0", nil, h, nil)

	if !h.registered {
		t.Fatal("handler was not registered")
	}

	req := httptest.NewRequest(http.MethodGet, "/stub", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rec.Code, http.StatusOK)
	}
}

func TestNewServerDefaultAddr(t *testing.T) {
	t.Parallel()

	srv := NewServer("", nil)
	if srv.addr != ":8080" {
		t.Fatalf("addr=%q want=%q", srv.addr, ":8080")
	}
}
