package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// GoogleCertsURL serves the x509 certificates that sign Firebase ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const defaultCertsTTL = time.Hour

type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// CertSource fetches and caches PEM certificates keyed by kid. The cache honours Cache-Control max-age.
// Concurrent misses share one fetch.
type CertSource struct {
	logger *zap.Logger
	client *http.Client
	url    string
	now    func() time.Time
	flight singleflight.Group

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

func NewCertSource(logger *zap.Logger, client *http.Client, url string) *CertSource {
	if url == "" {
		url = GoogleCertsURL
	}
	return &CertSource{logger: logger, client: client, url: url, now: time.Now}
}

func (s *CertSource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, fresh, err := s.cached(kid); fresh {
		return key, err
	}

	_, err, _ := s.flight.Do("certs", func() (any, error) {
		if _, fresh, _ := s.cached(kid); fresh {
			return nil, nil
		}
		// Waiters share this fetch, so one caller's cancellation must not fail the rest.
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	key, _, err := s.cached(kid)
	return key, err
}

// cached looks kid up in the current key set. fresh is false once the set has expired.
func (s *CertSource) cached(kid string) (key *rsa.PublicKey, fresh bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	if !ok {
		err = fmt.Errorf("unknown key id %q", kid)
	}
	return key, s.now().Before(s.expires), err
}

func (s *CertSource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing certs: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err = json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode signing certs: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(certPEM))
		if err != nil {
			s.logger.Warn("signing_cert_parse_failed", zap.String("kid", kid), zap.Error(err))
			continue
		}
		keys[kid] = key
	}

	s.mu.Lock()
	s.keys = keys
	s.expires = s.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	s.mu.Unlock()
	s.logger.Debug("signing_certs_refreshed", zap.Int("count", len(keys)))
	return nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultCertsTTL
}
