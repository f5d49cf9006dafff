// Package platform detects the host operating system family and the
// conventions that depend on it (package manager, webserver user).
package platform

import (
	"fmt"
	"os"
	"strings"

	"github.com/ksyq12/siteup/internal/executor"
)

// Family identifies the supported OS family groupings.
type Family string

// Supported OS families.
const (
	FamilyDebian Family = "debian" // Debian, Ubuntu and derivatives
	FamilyRHEL   Family = "rhel"   // RHEL, CentOS, Rocky, Alma, Fedora
)

// Profile describes the detected host. Computed once at the start of a run
// and immutable afterwards.
type Profile struct {
	OS             string // os-release ID (ubuntu, debian, centos, ...)
	Family         Family
	PackageManager string // apt-get, dnf or yum
	WebUser        string // conventional webserver user for the family
}

// osReleasePath is the standard location of the OS identification file.
const osReleasePath = "/etc/os-release"

// Detect reads /etc/os-release and classifies the host into exactly one
// supported family. An unreadable release file or an unrecognized family is
// an error; the caller is expected to abort.
func Detect(exec executor.CommandExecutor) (*Profile, error) {
	return DetectFromFile(exec, osReleasePath)
}

// DetectFromFile classifies the host using an explicit os-release path.
func DetectFromFile(exec executor.CommandExecutor, path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	fields := parseOSRelease(string(data))
	id := fields["ID"]
	idLike := fields["ID_LIKE"]

	switch {
	case isDebianLike(id, idLike):
		return &Profile{
			OS:             id,
			Family:         FamilyDebian,
			PackageManager: "apt-get",
			WebUser:        "www-data",
		}, nil
	case isRHELLike(id, idLike):
		pm := "dnf"
		if _, err := exec.LookPath("dnf"); err != nil {
			pm = "yum"
		}
		return &Profile{
			OS:             id,
			Family:         FamilyRHEL,
			PackageManager: pm,
			WebUser:        "nginx",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported OS %q (ID_LIKE=%q): only Debian-like and RHEL-like systems are supported", id, idLike)
	}
}

// parseOSRelease parses the KEY=value lines of an os-release file.
// Values may be quoted.
func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		fields[key] = value
	}
	return fields
}

func isDebianLike(id, idLike string) bool {
	if id == "debian" || id == "ubuntu" {
		return true
	}
	return containsWord(idLike, "debian") || containsWord(idLike, "ubuntu")
}

func isRHELLike(id, idLike string) bool {
	switch id {
	case "rhel", "centos", "fedora", "rocky", "almalinux":
		return true
	}
	return containsWord(idLike, "rhel") || containsWord(idLike, "fedora") || containsWord(idLike, "centos")
}

// containsWord checks for a whole word in a space-separated list.
func containsWord(list, word string) bool {
	for _, w := range strings.Fields(list) {
		if w == word {
			return true
		}
	}
	return false
}

// String returns a short human-readable description of the profile.
func (p *Profile) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.OS, p.Family, p.PackageManager)
}
