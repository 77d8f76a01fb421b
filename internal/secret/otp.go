package secret

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ParseOTP parses a TOTP provisioning URL
func ParseOTP(raw string) (*otp.Key, error) {
	key, err := otp.NewKeyFromURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOTPURL, err)
	}
	if key.Type() != "totp" {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidOTPURL, key.Type())
	}
	if key.Secret() == "" {
		return nil, fmt.Errorf("%w: missing secret", ErrInvalidOTPURL)
	}
	return key, nil
}

// Code computes the TOTP code of key at the given time.
// The counter is floor(unix(now) / period), the code is zero-padded to the
// key's digit count.
func Code(key *otp.Key, now time.Time) (string, error) {
	period := key.Period()
	if period == 0 {
		period = 30
	}
	code, err := totp.GenerateCodeCustom(key.Secret(), now, totp.ValidateOpts{
		Period:    uint(period),
		Digits:    key.Digits(),
		Algorithm: key.Algorithm(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOTPURL, err)
	}
	return code, nil
}

// OTPCode finds the provisioning URL in text and returns the current code
func OTPCode(text string, now time.Time) (string, error) {
	raw, err := OTPURL(text)
	if err != nil {
		return "", err
	}
	key, err := ParseOTP(raw)
	if err != nil {
		return "", err
	}
	return Code(key, now)
}
