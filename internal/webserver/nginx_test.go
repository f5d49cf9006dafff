package webserver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/platform"
)

func newTestNginx(t *testing.T, mock *executor.MockExecutor) *Nginx {
	t.Helper()
	dir := t.TempDir()
	return NewNginxWithPaths(mock, filepath.Join(dir, "sites-available"), filepath.Join(dir, "sites-enabled"))
}

func TestNewNginx_FamilyPaths(t *testing.T) {
	mock := &executor.MockExecutor{}

	t.Run("debian layout", func(t *testing.T) {
		n := NewNginx(mock, platform.FamilyDebian)
		if n.Paths().Available != "/etc/nginx/sites-available" {
			t.Errorf("unexpected available path: %s", n.Paths().Available)
		}
		if n.Paths().Enabled != "/etc/nginx/sites-enabled" {
			t.Errorf("unexpected enabled path: %s", n.Paths().Enabled)
		}
	})

	t.Run("rhel layout is flat", func(t *testing.T) {
		n := NewNginx(mock, platform.FamilyRHEL)
		if n.Paths().Available != "/etc/nginx/conf.d" || n.Paths().Enabled != "/etc/nginx/conf.d" {
			t.Errorf("unexpected rhel paths: %+v", n.Paths())
		}
	})
}

func TestWriteSite(t *testing.T) {
	n := newTestNginx(t, &executor.MockExecutor{})

	if err := n.WriteSite("example.com", "server {}\n"); err != nil {
		t.Fatalf("WriteSite failed: %v", err)
	}

	data, err := os.ReadFile(n.ConfigPath("example.com"))
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if string(data) != "server {}\n" {
		t.Errorf("unexpected config content: %q", data)
	}

	// Overwrites on re-run
	if err := n.WriteSite("example.com", "server { listen 80; }\n"); err != nil {
		t.Fatalf("WriteSite overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(n.ConfigPath("example.com"))
	if string(data) != "server { listen 80; }\n" {
		t.Errorf("config not overwritten: %q", data)
	}
}

func TestEnable(t *testing.T) {
	t.Run("creates symlink", func(t *testing.T) {
		n := newTestNginx(t, &executor.MockExecutor{})
		if err := n.WriteSite("example.com", "server {}\n"); err != nil {
			t.Fatal(err)
		}

		if err := n.Enable("example.com"); err != nil {
			t.Fatalf("Enable failed: %v", err)
		}

		target, err := os.Readlink(n.EnabledPath("example.com"))
		if err != nil {
			t.Fatalf("enabled path is not a symlink: %v", err)
		}
		if target != n.ConfigPath("example.com") {
			t.Errorf("symlink points at %s", target)
		}
	})

	t.Run("replaces stale reference", func(t *testing.T) {
		n := newTestNginx(t, &executor.MockExecutor{})
		if err := n.WriteSite("example.com", "server {}\n"); err != nil {
			t.Fatal(err)
		}
		// Simulate a stale link left by an earlier revision
		if err := os.MkdirAll(n.Paths().Enabled, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink("/nonexistent/old.conf", n.EnabledPath("example.com")); err != nil {
			t.Fatal(err)
		}

		if err := n.Enable("example.com"); err != nil {
			t.Fatalf("Enable failed: %v", err)
		}
		target, _ := os.Readlink(n.EnabledPath("example.com"))
		if target != n.ConfigPath("example.com") {
			t.Errorf("stale link not replaced, points at %s", target)
		}
	})

	t.Run("missing config is an error", func(t *testing.T) {
		n := newTestNginx(t, &executor.MockExecutor{})
		if err := n.Enable("missing.com"); err == nil {
			t.Error("expected error for missing config")
		}
	})

	t.Run("flat layout is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		n := NewNginxWithPaths(&executor.MockExecutor{}, dir, dir)
		if err := n.WriteSite("example.com", "server {}\n"); err != nil {
			t.Fatal(err)
		}
		if err := n.Enable("example.com"); err != nil {
			t.Fatalf("Enable on flat layout failed: %v", err)
		}
		// No symlink should exist; the config file itself is the enabled one
		info, err := os.Lstat(n.ConfigPath("example.com"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			t.Error("flat layout must not create symlinks")
		}
	})
}

func TestRemove(t *testing.T) {
	n := newTestNginx(t, &executor.MockExecutor{})
	if err := n.WriteSite("example.com", "server {}\n"); err != nil {
		t.Fatal(err)
	}
	if err := n.Enable("example.com"); err != nil {
		t.Fatal(err)
	}

	if err := n.Remove("example.com"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Lstat(n.EnabledPath("example.com")); !os.IsNotExist(err) {
		t.Error("enabled link not removed")
	}
	if _, err := os.Stat(n.ConfigPath("example.com")); !os.IsNotExist(err) {
		t.Error("config file not removed")
	}

	// Removing an absent site is not an error
	if err := n.Remove("example.com"); err != nil {
		t.Errorf("Remove of absent site should be a no-op: %v", err)
	}
}

func TestTest(t *testing.T) {
	t.Run("passes valid config", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return []byte("nginx: configuration file test is successful"), nil
			},
		}
		n := newTestNginx(t, mock)
		if err := n.Test(); err != nil {
			t.Errorf("Test failed: %v", err)
		}
	})

	t.Run("propagates syntax errors", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return []byte(`nginx: [emerg] unexpected "}"`), errors.New("exit status 1")
			},
		}
		n := newTestNginx(t, mock)
		if err := n.Test(); err == nil {
			t.Error("expected config test failure")
		}
	})
}

func TestReload(t *testing.T) {
	t.Run("uses systemctl", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		n := newTestNginx(t, mock)
		if err := n.Reload(); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if !mock.CalledWith("systemctl", "reload", "nginx") {
			t.Error("expected systemctl reload nginx")
		}
	})

	t.Run("falls back to nginx -s reload", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				if name == "systemctl" {
					return []byte("Failed to reload"), errors.New("exit status 1")
				}
				return []byte(""), nil
			},
		}
		n := newTestNginx(t, mock)
		if err := n.Reload(); err != nil {
			t.Fatalf("Reload fallback failed: %v", err)
		}
		if !mock.CalledWith("nginx", "-s", "reload") {
			t.Error("expected nginx -s reload fallback")
		}
	})
}

func TestTestAndReload_NoReloadOnBrokenConfig(t *testing.T) {
	mock := &executor.MockExecutor{
		ExecuteFunc: func(name string, args ...string) ([]byte, error) {
			if name == "nginx" && len(args) == 1 && args[0] == "-t" {
				return []byte("nginx: [emerg] invalid parameter"), errors.New("exit status 1")
			}
			return []byte(""), nil
		},
	}
	n := newTestNginx(t, mock)

	if err := n.TestAndReload(); err == nil {
		t.Fatal("expected error from config test")
	}
	if mock.CalledWith("systemctl", "reload", "nginx") {
		t.Error("reload must not run after a failed config test")
	}
}
