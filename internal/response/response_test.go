package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		SuccessWithWarnings(c, http.StatusOK, gin.H{"ok": true}, []string{WarnAttemptNotSaved})
	})

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"generated", "", false},
		{"kept", "5f1c7a9e-1b2c-4d3e-8f90-0a1b2c3d4e5f", true},
		{"replaced when malformed", "not-a-uuid\nX-Evil: 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			got := w.Header().Get("X-Request-ID")
			if got == "" || body.Metadata.RequestID != got {
				t.Fatalf("header %q, metadata %q", got, body.Metadata.RequestID)
			}
			if (got == tt.header) != tt.wantSame {
				t.Fatalf("request id %q, incoming %q", got, tt.header)
			}
			if len(body.Warnings) != 1 || body.Warnings[0] != WarnAttemptNotSaved {
				t.Fatalf("warnings %v", body.Warnings)
			}
		})
	}
}

func TestFailEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		Fail(c, http.StatusPaymentRequired, ErrPremiumRequired)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status %d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == nil || body.Error.Code != ErrPremiumRequired || body.Error.Message != GetMessage(ErrPremiumRequired) {
		t.Fatalf("error body %+v", body.Error)
	}
	if body.Metadata.RequestID == "" {
		t.Fatal("missing request id without middleware")
	}
}
