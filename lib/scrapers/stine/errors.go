package stine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Authentication failures the portal reports as full error pages.
// These are terminal for the current session, retrying without new
// credentials will not help.
var (
	ErrWrongCredentials  = fmt.Errorf("wrong username or password")
	ErrAccessDenied      = fmt.Errorf("access denied")
	ErrTemporarilyLocked = fmt.Errorf("account temporarily locked due to too many failed login attempts")
	ErrSessionTimeout    = fmt.Errorf("session timed out")
)

// LockoutError is reported when the portal blocks login for a number
// of minutes after repeated failed attempts.
type LockoutError struct {
	Minutes int
}

func (e LockoutError) Error() string {
	return fmt.Sprintf("access blocked for %d minutes due to wrong credentials", e.Minutes)
}

// MissingHeaderError signals that the login response lacked one of the
// two headers the handshake depends on. This is a structural failure
// of the handshake, not a credentials problem.
type MissingHeaderError struct {
	Header string
}

func (e MissingHeaderError) Error() string {
	return fmt.Sprintf("login response is missing the %s header", e.Header)
}

// NotFoundError is returned by the cached entity lookups. The caller
// may retry with force reload, which re-scrapes the full catalog and
// takes minutes.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found, consider force reloading", e.Kind, e.Key)
}

var lockoutMinutesRegex = regexp.MustCompile(`(\d*) minutes`)

// checkForError scans a response body for the portal's known failure
// pages. The portal answers every request with HTTP 200, errors only
// show up as <h1> markers in the body.
func checkForError(body string) error {
	switch {
	case strings.Contains(body, "<h1>Kennung oder Kennwort falsch - Zugang verweigert</h1>"):
		groups := lockoutMinutesRegex.FindStringSubmatch(body)
		if len(groups) == 2 {
			minutes, err := strconv.Atoi(groups[1])
			if err == nil {
				return LockoutError{Minutes: minutes}
			}
		}
		return ErrWrongCredentials
	case strings.Contains(body, "<h1>Kennung oder Kennwort falsch</h1>"):
		return ErrWrongCredentials
	case strings.Contains(body, "<h1>Zugang verweigert</h1>"):
		return ErrAccessDenied
	case strings.Contains(body, "<h1>Anmeldung zur Zeit nicht möglich</h1>"):
		return ErrTemporarilyLocked
	case strings.Contains(body, "<h1>Timeout</h1>"), strings.Contains(body, "<h1>Timeout!</h1>"):
		return ErrSessionTimeout
	}
	return nil
}
