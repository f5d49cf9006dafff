// Package input gathers and validates the interactive parameters of a
// provisioning run: the site domain and the contact email.
package input

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/output"
)

// SiteRequest holds the operator-supplied parameters. Immutable once
// collected; every later pipeline stage reads from it.
type SiteRequest struct {
	Domain string
	Email  string
}

// maxAttempts bounds the retries for each interactive value.
const maxAttempts = 3

var validate = validator.New()

// hostnameChars restricts domains to letters, digits, dot and hyphen.
var hostnameChars = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

// ValidateDomain checks a domain against the accepted hostname syntax.
func ValidateDomain(domain string) error {
	if domain == "" {
		return errors.Validation("domain cannot be empty")
	}
	if !hostnameChars.MatchString(domain) {
		return errors.Validation("domain may only contain letters, digits, dots and hyphens")
	}
	if err := validate.Var(domain, "hostname_rfc1123"); err != nil {
		return errors.Validation(fmt.Sprintf("%s is not a valid hostname", domain))
	}
	return nil
}

// ValidateEmail checks a contact address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.Validation("email cannot be empty")
	}
	if err := validate.Var(email, "email"); err != nil {
		return errors.Validation(fmt.Sprintf("%s is not a valid email address", email))
	}
	return nil
}

// Collect prompts for the domain and the contact email, each with up to
// three attempts. After exhausting the attempts for either value the whole
// run fails.
func Collect(r Reader) (*SiteRequest, error) {
	domain, err := promptValidated(r, "Domain name (e.g. example.com): ", ValidateDomain)
	if err != nil {
		return nil, err
	}

	email, err := promptValidated(r, "Contact email for Let's Encrypt: ", ValidateEmail)
	if err != nil {
		return nil, err
	}

	return &SiteRequest{Domain: domain, Email: email}, nil
}

// promptValidated reads one value with bounded retries.
func promptValidated(r Reader, prompt string, check func(string) error) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print(prompt)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return "", errors.Wrap(errors.ErrCodeValidation, "failed to read input", err)
		}
		value := strings.TrimSpace(line)

		if lastErr = check(value); lastErr == nil {
			return value, nil
		}
		output.Warn("%v (attempt %d/%d)", lastErr, attempt, maxAttempts)
	}
	return "", errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("no valid input after %d attempts", maxAttempts), lastErr)
}

// ConfirmTimeout asks a yes/no question and waits at most d for the answer.
// Timeout, read failure, or any answer other than y/yes means no.
func ConfirmTimeout(r Reader, prompt string, d time.Duration) bool {
	fmt.Printf("%s [y/N] (auto-no in %.0fs): ", prompt, d.Seconds())

	answers := make(chan string, 1)
	go func() {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			answers <- ""
			return
		}
		answers <- strings.TrimSpace(line)
	}()

	select {
	case answer := <-answers:
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	case <-time.After(d):
		fmt.Println()
		output.Info("No answer, keeping the current certificate")
		return false
	}
}
