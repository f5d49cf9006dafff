//go:build integration

package integration

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/site"
	"github.com/ksyq12/siteup/internal/template"
	"github.com/ksyq12/siteup/internal/webserver"
)

// testDirs holds paths to test directories, created fresh for each test
type testDirs struct {
	sitesAvailable string
	sitesEnabled   string
	wwwDir         string
}

func setupTestDirs(t *testing.T) *testDirs {
	t.Helper()
	baseDir := t.TempDir()

	dirs := &testDirs{
		sitesAvailable: filepath.Join(baseDir, "sites-available"),
		sitesEnabled:   filepath.Join(baseDir, "sites-enabled"),
		wwwDir:         filepath.Join(baseDir, "www"),
	}

	for _, dir := range []string{dirs.sitesAvailable, dirs.sitesEnabled, dirs.wwwDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	return dirs
}

func TestVhostLifecycle(t *testing.T) {
	dirs := setupTestDirs(t)
	ngx := webserver.NewNginxWithPaths(executor.NewSystemExecutor(), dirs.sitesAvailable, dirs.sitesEnabled)

	webRoot := filepath.Join(dirs.wwwDir, "test.local")

	t.Run("Write site config", func(t *testing.T) {
		content, err := template.Render(template.Site, template.Data{
			Domain:   "test.local",
			WebRoot:  webRoot,
			CertPath: "/etc/ssl/sites/test.local/fullchain.pem",
			KeyPath:  "/etc/ssl/sites/test.local/privkey.pem",
		})
		if err != nil {
			t.Fatalf("Failed to render template: %v", err)
		}

		if err := ngx.WriteSite("test.local", content); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		if _, err := os.Stat(ngx.ConfigPath("test.local")); os.IsNotExist(err) {
			t.Error("Config file was not created")
		}
	})

	t.Run("Enable", func(t *testing.T) {
		if err := ngx.Enable("test.local"); err != nil {
			t.Fatalf("Failed to enable: %v", err)
		}

		info, err := os.Lstat(ngx.EnabledPath("test.local"))
		if err != nil {
			t.Fatalf("Failed to stat enabled link: %v", err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Error("Expected symlink, got regular file")
		}
	})

	t.Run("Enable is idempotent", func(t *testing.T) {
		if err := ngx.Enable("test.local"); err != nil {
			t.Fatalf("Second enable failed: %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := ngx.Remove("test.local"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if _, err := os.Stat(ngx.ConfigPath("test.local")); !os.IsNotExist(err) {
			t.Error("Config file should have been removed")
		}
	})
}

func TestNginxConfigValidation(t *testing.T) {
	if !isNginxAvailable() {
		t.Skip("Nginx is not available")
	}

	dirs := setupTestDirs(t)
	ngx := webserver.NewNginxWithPaths(executor.NewSystemExecutor(), dirs.sitesAvailable, dirs.sitesEnabled)

	content, err := template.Render(template.Challenge, template.Data{
		Domain:  "valid.local",
		WebRoot: filepath.Join(dirs.wwwDir, "valid.local"),
	})
	if err != nil {
		t.Fatalf("Failed to render template: %v", err)
	}

	if err := ngx.WriteSite("valid.local", content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := ngx.Enable("valid.local"); err != nil {
		t.Fatalf("Failed to enable: %v", err)
	}

	// nginx -t checks the main config which may not include our dirs;
	// log rather than fail.
	if err := ngx.Test(); err != nil {
		t.Logf("Nginx test returned: %v", err)
	}

	ngx.Remove("valid.local")
}

func TestBundleDeploy(t *testing.T) {
	dirs := setupTestDirs(t)

	var bundle bytes.Buffer
	gz := gzip.NewWriter(&bundle)
	tw := tar.NewWriter(gz)
	content := "<html><h1>hello</h1></html>"
	if err := tw.WriteHeader(&tar.Header{Name: "index.html", Mode: 0644, Size: int64(len(content))}); err != nil {
		t.Fatalf("write tar header: %v", err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatalf("write tar entry: %v", err)
	}
	tw.Close()
	gz.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bundle.Bytes())
	}))
	defer srv.Close()

	d := site.NewDeployerWithClient(srv.Client(), executor.NewSystemExecutor(), "www-data")
	webRoot := filepath.Join(dirs.wwwDir, "test.local")

	if err := d.Deploy(srv.URL+"/bundle.tar.gz", webRoot); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(webRoot, "index.html"))
	if err != nil {
		t.Fatalf("index.html missing after deploy: %v", err)
	}
	if !strings.Contains(string(data), "html") {
		t.Errorf("unexpected index.html content: %q", data)
	}
}

func isNginxAvailable() bool {
	_, err := executor.NewSystemExecutor().LookPath("nginx")
	return err == nil
}
