package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_APIKeyLifecycle tests generation, persistence, and
// validation of the API key
func TestProperty_APIKeyLifecycle(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("generated_key_validates_and_persists", prop.ForAll(
		func(seed uint) bool {
			tempDir, err := os.MkdirTemp("", "apikey_test_*")
			if err != nil {
				return false
			}
			defer os.RemoveAll(tempDir)

			manager, err := NewAPIKeyManager(tempDir)
			if err != nil {
				return false
			}

			key := manager.GetCurrentKey()
			if len(key) != APIKeyLength*2 || !manager.ValidateKey(key) {
				return false
			}

			// A second manager over the same directory loads the same key
			reloaded, err := NewAPIKeyManager(tempDir)
			if err != nil {
				return false
			}
			return reloaded.GetCurrentKey() == key
		},
		gen.UIntRange(1, 1000),
	))

	properties.Property("wrong_key_never_validates", prop.ForAll(
		func(candidate string) bool {
			tempDir, err := os.MkdirTemp("", "apikey_test_*")
			if err != nil {
				return false
			}
			defer os.RemoveAll(tempDir)

			manager, err := NewAPIKeyManager(tempDir)
			if err != nil {
				return false
			}
			if candidate == manager.GetCurrentKey() {
				return true // astronomically unlikely, but not a failure
			}
			return !manager.ValidateKey(candidate)
		},
		gen.AnyString(),
	))

	properties.Property("reset_invalidates_old_key", prop.ForAll(
		func(seed uint) bool {
			tempDir, err := os.MkdirTemp("", "apikey_test_*")
			if err != nil {
				return false
			}
			defer os.RemoveAll(tempDir)

			manager, err := NewAPIKeyManager(tempDir)
			if err != nil {
				return false
			}

			oldKey := manager.GetCurrentKey()
			newKey, err := manager.ResetKey()
			if err != nil || newKey == oldKey {
				return false
			}
			return manager.ValidateKey(newKey) && !manager.ValidateKey(oldKey)
		},
		gen.UIntRange(1, 1000),
	))

	properties.TestingRun(t)
}

func TestAPIKeyFilePermissions(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := NewAPIKeyManager(tempDir); err != nil {
		t.Fatalf("NewAPIKeyManager failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(tempDir, "api_key.txt"))
	if err != nil {
		t.Fatalf("Key file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tempDir := t.TempDir()

	manager, err := NewAPIKeyManager(tempDir)
	if err != nil {
		t.Fatalf("NewAPIKeyManager failed: %v", err)
	}

	router := gin.New()
	router.Use(APIKeyMiddleware(manager))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"valid key", manager.GetCurrentKey(), http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "deadbeef", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusUnauthorized && !strings.Contains(w.Body.String(), "AUTH_FAILED") {
				t.Errorf("Expected AUTH_FAILED error code, got %s", w.Body.String())
			}
		})
	}
}
