package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/schoolhub/internal/auth"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func limitedRouter(limit int, keyFn func(*gin.Context) string, identity *auth.Identity) *gin.Engine {
	r := gin.New()

	if identity != nil {
		r.Use(func(c *gin.Context) {
			middlewares.SetIdentity(c, *identity)
			c.Next()
		})
	}

	rl := middlewares.NewRateLimiter(limit, time.Minute)
	r.GET("/ping", rl.RateLimiterMiddleware(keyFn), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_KeyByUserOrIP_SharedBucketAcrossIPs(t *testing.T) {
	id := auth.Identity{UserID: "user-1", Role: user.RoleStudent, OrganizationID: "org-1"}
	r := limitedRouter(2, middlewares.KeyByUserOrIP, &id)

	// same user from two addresses still shares one bucket
	if w := hit(r, "10.0.0.1:1111"); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}
	if w := hit(r, "10.0.0.2:2222"); w.Code != http.StatusOK {
		t.Fatalf("second request: got %d", w.Code)
	}

	w := hit(r, "10.0.0.3:3333")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", w.Code)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatal("429 without a Retry-After header")
	}
}

func TestRateLimiter_KeyByUserOrIP_FallsBackToIP(t *testing.T) {
	r := limitedRouter(1, middlewares.KeyByUserOrIP, nil)

	if w := hit(r, "10.0.0.1:1111"); w.Code != http.StatusOK {
		t.Fatalf("first address: got %d", w.Code)
	}

	// no identity: different addresses get their own buckets
	if w := hit(r, "10.0.0.2:2222"); w.Code != http.StatusOK {
		t.Fatalf("second address: got %d", w.Code)
	}

	if w := hit(r, "10.0.0.1:3333"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat address: got %d, want 429", w.Code)
	}
}

func TestRateLimiter_KeyByIP(t *testing.T) {
	r := limitedRouter(1, middlewares.KeyByIP, nil)

	if w := hit(r, "192.168.1.5:1111"); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}

	w := hit(r, "192.168.1.5:2222")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}

	if resp.Error.Code != "rate_limited" {
		t.Fatalf("got error code %q, want rate_limited", resp.Error.Code)
	}
}
