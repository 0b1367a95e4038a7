package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxboard/contract"
	apperrors "github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/util"
)

// ContextKeyClient holds a short fingerprint of the caller's key. Rate
// limiting and access logs use it; the key itself is never stored.
const ContextKeyClient = "client"

// APIKeyConfig is the caller allow-list.
type APIKeyConfig struct {
	Keys      []string `yaml:"api_keys" mapstructure:"api_keys"`
	Header    string   `yaml:"header" mapstructure:"header"`
	SkipPaths []string `yaml:"skip_paths" mapstructure:"skip_paths"`
}

// ApplyDefaults sets the header name and the probe paths that bypass auth.
func (c *APIKeyConfig) ApplyDefaults() {
	if c.Header == "" {
		c.Header = contract.HeaderAPIKey
	}
	if c.SkipPaths == nil {
		c.SkipPaths = []string{"/health", "/alive", "/info"}
	}
}

// Validate requires at least one non-blank key.
func (c *APIKeyConfig) Validate() error {
	if !slices.ContainsFunc(c.Keys, func(k string) bool { return strings.TrimSpace(k) != "" }) {
		return fmt.Errorf("auth.api_keys must contain at least one key")
	}
	return nil
}

// APIKey rejects requests whose key is missing or not on the allow-list.
// The key is read from the configured header, falling back to a bearer
// token. An empty allow-list rejects everything.
func APIKey(cfg APIKeyConfig, log *logger.Logger) gin.HandlerFunc {
	cfg.ApplyDefaults()
	allowed := make([][sha256.Size]byte, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, sha256.Sum256([]byte(k)))
		}
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		key := presentedKey(c, cfg.Header)
		if key == "" {
			abortWithError(c, apperrors.Unauthorized("missing API key"))
			return
		}
		sum := sha256.Sum256([]byte(key))
		if !matchAny(allowed, sum) {
			log.WithContext(c.Request.Context()).Warn("rejected API key",
				logger.Fields("key", util.MaskSecret(key, 4), "client_ip", c.ClientIP()))
			abortWithError(c, apperrors.Unauthorized("invalid API key"))
			return
		}
		c.Set(ContextKeyClient, hex.EncodeToString(sum[:6]))
		c.Next()
	}
}

func presentedKey(c *gin.Context, header string) string {
	if k := strings.TrimSpace(c.GetHeader(header)); k != "" {
		return k
	}
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchAny compares against every entry so timing does not reveal which
// key, if any, matched.
func matchAny(allowed [][sha256.Size]byte, sum [sha256.Size]byte) bool {
	found := 0
	for i := range allowed {
		found |= subtle.ConstantTimeCompare(allowed[i][:], sum[:])
	}
	return found == 1
}
