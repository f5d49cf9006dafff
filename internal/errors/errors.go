// Package errors provides standardized error types for the siteup tool.
//
// The errors package defines provisioning-specific error types that enable
// structured error handling and consistent diagnostics throughout the
// pipeline.
//
// # Error Types
//
// ProvisionError is the primary error type, containing:
//   - Code: Categorizes the error (VALIDATION, INSTALL, SSL, etc.)
//   - Message: Human-readable error description
//   - Domain: The domain name involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// # Sentinel Errors
//
// Common error scenarios have pre-defined sentinel errors:
//
//	errors.ErrRootRequired      // must run as root
//	errors.ErrUnsupportedOS     // OS family not recognized
//	errors.ErrInvalidDomain     // domain validation failed
//	errors.ErrACMENotInstalled  // acme.sh missing
//
// # Usage
//
// Creating provisioning errors:
//
//	// Validation error
//	return errors.Validation("email cannot be empty")
//
//	// Wrapping an underlying error
//	return errors.Wrap(errors.ErrCodeInstall, "failed to install packages", err)
//
// # Error Checking
//
// Use errors.Is for sentinel error comparison:
//
//	if errors.Is(err, errors.ErrUnsupportedOS) {
//	    // Handle unsupported platform
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeValidation ErrorCode = "VALIDATION" // Input validation failed
	ErrCodePlatform   ErrorCode = "PLATFORM"   // OS detection / unsupported host
	ErrCodePermission ErrorCode = "PERMISSION" // Permission denied
	ErrCodeInstall    ErrorCode = "INSTALL"    // Package installation failed
	ErrCodeFirewall   ErrorCode = "FIREWALL"   // Firewall rule error (best-effort)
	ErrCodeDeploy     ErrorCode = "DEPLOY"     // Bundle download/extraction failed
	ErrCodeSSL        ErrorCode = "SSL"        // ACME/certificate related error
	ErrCodeConfig     ErrorCode = "CONFIG"     // Webserver configuration error
	ErrCodeSchedule   ErrorCode = "SCHEDULE"   // Cron scheduling error
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal/unexpected error
)

// ProvisionError represents a structured error with context about the
// pipeline stage that produced it.
type ProvisionError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Domain  string    // Domain name (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	if e.Domain != "" && e.Err != nil {
		return fmt.Sprintf("site %s: %s: %v", e.Domain, e.Message, e.Err)
	}
	if e.Domain != "" {
		return fmt.Sprintf("site %s: %s", e.Domain, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrRootRequired indicates the tool was invoked without root privileges.
	ErrRootRequired = &ProvisionError{Code: ErrCodePermission, Message: "root privileges required"}

	// ErrUnsupportedOS indicates the host OS family is not supported.
	ErrUnsupportedOS = &ProvisionError{Code: ErrCodePlatform, Message: "unsupported operating system"}

	// ErrInvalidDomain indicates the domain name is not valid.
	ErrInvalidDomain = &ProvisionError{Code: ErrCodeValidation, Message: "invalid domain"}

	// ErrInvalidEmail indicates the contact email is not valid.
	ErrInvalidEmail = &ProvisionError{Code: ErrCodeValidation, Message: "invalid email"}

	// ErrNoTerminal indicates no controlling terminal could be opened for
	// interactive input.
	ErrNoTerminal = &ProvisionError{Code: ErrCodeValidation, Message: "no controlling terminal"}

	// ErrACMENotInstalled indicates acme.sh is not installed.
	ErrACMENotInstalled = &ProvisionError{Code: ErrCodeSSL, Message: "acme.sh not installed, run: curl https://get.acme.sh | sh"}

	// ErrPreflightFailed indicates the HTTP-01 reachability check failed.
	ErrPreflightFailed = &ProvisionError{Code: ErrCodeSSL, Message: "challenge preflight failed"}

	// ErrConfigTestFailed indicates the webserver rejected the generated
	// configuration.
	ErrConfigTestFailed = &ProvisionError{Code: ErrCodeConfig, Message: "configuration test failed"}
)

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &ProvisionError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &ProvisionError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapDomain creates an error with domain context and underlying error.
func WrapDomain(code ErrorCode, domain, msg string, err error) error {
	return &ProvisionError{
		Code:    code,
		Message: msg,
		Domain:  domain,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
