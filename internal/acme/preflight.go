package acme

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/logger"
	"github.com/ksyq12/siteup/internal/template"
	"github.com/ksyq12/siteup/internal/webserver"
)

// challengeDir is the well-known path within the webroot that HTTP-01
// validation fetches from.
const challengeDir = ".well-known/acme-challenge"

// Preflight verifies the HTTP-01 challenge path is actually servable before
// any issuance attempt: it installs a challenge-only nginx config, reloads,
// writes a synthetic token into the webroot and fetches it back over HTTP.
// Any failure is fatal for the run; issuance is never attempted blind.
//
// baseURL overrides the probe origin for testing; empty means
// http://<domain>.
func Preflight(ngx *webserver.Nginx, client *http.Client, domain, webroot, baseURL string) error {
	conf, err := template.Render(template.Challenge, template.Data{
		Domain:  domain,
		WebRoot: webroot,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeSSL, "failed to render challenge config", err)
	}

	if err := ngx.WriteSite(domain, conf); err != nil {
		return err
	}
	if err := ngx.Enable(domain); err != nil {
		return err
	}
	if err := ngx.TestAndReload(); err != nil {
		return err
	}

	dir := filepath.Join(webroot, challengeDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeSSL, "challenge directory is not writable", err)
	}

	token := uuid.NewString()
	tokenPath := filepath.Join(dir, token)
	if err := os.WriteFile(tokenPath, []byte(token), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeSSL, "failed to write challenge token", err)
	}
	defer os.Remove(tokenPath)

	origin := baseURL
	if origin == "" {
		origin = "http://" + domain
	}
	probeURL := fmt.Sprintf("%s/%s/%s", origin, challengeDir, token)

	logger.Debug("Probing challenge path at %s", probeURL)
	resp, err := client.Get(probeURL)
	if err != nil {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, "challenge path not reachable over HTTP", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, fmt.Sprintf("challenge probe returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, "failed to read challenge probe response", err)
	}
	if string(body) != token {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, "challenge probe returned wrong content, webroot wiring is broken", nil)
	}

	return nil
}
