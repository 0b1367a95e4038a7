package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/voxboard/security/tlstest"
)

func TestBuild_ZeroConfigIsNil(t *testing.T) {
	var nilCfg *TLSConfig
	for _, c := range []*TLSConfig{nilCfg, {}} {
		got, err := c.Build()
		if err != nil || got != nil {
			t.Fatalf("Build() = %v, %v", got, err)
		}
	}
}

func TestBuild(t *testing.T) {
	certs := tlstest.Generate(t)
	bogus := filepath.Join(t.TempDir(), "bogus.pem")
	if err := os.WriteFile(bogus, []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		cfg       TLSConfig
		wantErr   bool
		wantRoots bool
		wantCerts int
	}{
		{name: "private CA", cfg: TLSConfig{CAFile: certs.CAFile}, wantRoots: true},
		{name: "mutual TLS", cfg: TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}, wantRoots: true, wantCerts: 1},
		{name: "server name only", cfg: TLSConfig{ServerName: "backend.internal"}},
		{name: "missing CA file", cfg: TLSConfig{CAFile: "/nonexistent/ca.pem"}, wantErr: true},
		{name: "CA file without certificates", cfg: TLSConfig{CAFile: bogus}, wantErr: true},
		{name: "cert without key", cfg: TLSConfig{CertFile: certs.CertFile}, wantErr: true},
		{name: "key mismatch", cfg: TLSConfig{CertFile: certs.CertFile, KeyFile: certs.CAFile}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Build()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if (got.RootCAs != nil) != tt.wantRoots {
				t.Fatalf("RootCAs set = %v", got.RootCAs != nil)
			}
			if len(got.Certificates) != tt.wantCerts {
				t.Fatalf("certificates = %d", len(got.Certificates))
			}
			if got.ServerName != tt.cfg.ServerName {
				t.Fatalf("ServerName = %q", got.ServerName)
			}
		})
	}
}
