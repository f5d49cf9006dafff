// Package site downloads the published site bundle and deploys it into the
// per-domain webroot. Each deploy overwrites the previous content; there is
// no versioning or rollback.
package site

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/logger"
)

// Deployer fetches and unpacks the site bundle.
type Deployer struct {
	client  *http.Client
	exec    executor.CommandExecutor
	webUser string
}

// NewDeployer creates a Deployer. webUser is the conventional webserver
// account for the host family (www-data or nginx).
func NewDeployer(exec executor.CommandExecutor, webUser string, timeout time.Duration) *Deployer {
	return &Deployer{
		client:  &http.Client{Timeout: timeout},
		exec:    exec,
		webUser: webUser,
	}
}

// NewDeployerWithClient creates a Deployer with a custom HTTP client (for testing).
func NewDeployerWithClient(client *http.Client, exec executor.CommandExecutor, webUser string) *Deployer {
	return &Deployer{client: client, exec: exec, webUser: webUser}
}

// Deploy downloads the bundle from url and extracts it into webRoot, then
// fixes ownership and permissions. Download and extraction failures are
// fatal.
func (d *Deployer) Deploy(url, webRoot string) error {
	tmp, err := d.download(url)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := d.extract(tmp, webRoot); err != nil {
		return err
	}

	d.setOwnership(webRoot)

	if err := normalizePermissions(webRoot); err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "failed to normalize permissions", err)
	}

	return nil
}

// download fetches the bundle to a temporary file and returns its path.
func (d *Deployer) download(url string) (string, error) {
	logger.Info("Downloading site bundle from %s", url)

	resp, err := d.client.Get(url)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDeploy, "bundle download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrap(errors.ErrCodeDeploy, fmt.Sprintf("bundle download returned HTTP %d", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp("", "siteup-bundle-*.tar.gz")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDeploy, "failed to create temp file", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeDeploy, "failed to write bundle", err)
	}

	return tmp.Name(), nil
}

// extract unpacks a tar.gz archive into webRoot, creating it if needed.
// Entries that would escape the webroot are rejected.
func (d *Deployer) extract(archivePath, webRoot string) error {
	if err := os.MkdirAll(webRoot, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "failed to create webroot", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "failed to open bundle", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "bundle is not a gzip archive", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeDeploy, "bundle extraction failed", err)
		}

		target, err := securePath(webRoot, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrap(errors.ErrCodeDeploy, "failed to create directory", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrap(errors.ErrCodeDeploy, "failed to create directory", err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return errors.Wrap(errors.ErrCodeDeploy, "failed to create file", err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return errors.Wrap(errors.ErrCodeDeploy, "failed to extract file", err)
			}
			out.Close()
		default:
			logger.Debug("Skipping archive entry %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}

	return nil
}

// securePath joins an archive entry name onto the webroot and verifies the
// result stays inside it.
func securePath(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) && target != filepath.Clean(root) {
		return "", errors.Wrap(errors.ErrCodeDeploy, fmt.Sprintf("archive entry %q escapes the webroot", name), nil)
	}
	return target, nil
}

// setOwnership chowns the webroot to the webserver user, falling back to
// root when that account does not exist. Failures only warn: content owned
// by root is still servable.
func (d *Deployer) setOwnership(webRoot string) {
	owner := d.webUser
	if _, err := user.Lookup(owner); err != nil {
		logger.Warn("User %s not found, falling back to root ownership", owner)
		owner = "root"
	}

	if out, err := d.exec.Execute("chown", "-R", owner+":"+owner, webRoot); err != nil {
		logger.Warn("chown of %s failed: %s", webRoot, strings.TrimSpace(string(out)))
	}
}

// normalizePermissions makes directories traversable and files readable,
// clearing any execute bits the archive carried.
func normalizePermissions(webRoot string) error {
	return filepath.WalkDir(webRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return os.Chmod(path, 0755)
		}
		return os.Chmod(path, 0644)
	})
}
