// Package secret extracts the fields of a decrypted password-store entry.
//
// An entry follows the pass convention: the password is the first line, the
// login is the second line and any line starting with otpauth:// holds a TOTP
// provisioning URL.
package secret

import (
	"errors"
	"strings"
)

// OTPURLPrefix marks the line holding the TOTP provisioning URL
const OTPURLPrefix = "otpauth://"

var (
	ErrNoPassword    = errors.New("no password found")
	ErrNoLogin       = errors.New("no login found")
	ErrNoOTPURL      = errors.New("no OTP URL found")
	ErrInvalidOTPURL = errors.New("invalid OTP URL")
)

// Password returns the first line of text verbatim.
// An empty first line is a valid (empty) password; only empty text fails.
func Password(text string) (string, error) {
	l := lines(text)
	if len(l) == 0 {
		return "", ErrNoPassword
	}
	return l[0], nil
}

// Login returns the second line of text
func Login(text string) (string, error) {
	l := lines(text)
	if len(l) < 2 {
		return "", ErrNoLogin
	}
	return l[1], nil
}

// OTPURL returns the first line starting with otpauth://
func OTPURL(text string) (string, error) {
	for _, line := range lines(text) {
		if strings.HasPrefix(line, OTPURLPrefix) {
			return line, nil
		}
	}
	return "", ErrNoOTPURL
}

// lines splits text on newlines. A trailing newline does not produce an
// extra empty line and a trailing carriage return is dropped from each line.
func lines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}
