package secret

import (
	"errors"
	"testing"
	"time"
)

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		err      error
	}{
		{"single line", "hunter2", "hunter2", nil},
		{"trailing newline", "hunter2\n", "hunter2", nil},
		{"multi line", "hunter2\nalice\nurl: example.com\n", "hunter2", nil},
		{"crlf", "hunter2\r\nalice\r\n", "hunter2", nil},
		{"leading spaces kept", "  spaced  \nalice", "  spaced  ", nil},
		{"empty first line", "\nalice", "", nil},
		{"only newline", "\n", "", nil},
		{"empty text", "", "", ErrNoPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Password(tc.text)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Expected error %v, got %v", tc.err, err)
			}
			if result != tc.expected {
				t.Errorf("Password(%q) = %q, expected %q", tc.text, result, tc.expected)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		err      error
	}{
		{"two lines", "hunter2\nalice", "alice", nil},
		{"more lines", "hunter2\nalice\nurl: example.com", "alice", nil},
		{"empty login", "hunter2\n\nurl", "", nil},
		{"one line", "hunter2", "", ErrNoLogin},
		{"one line with newline", "hunter2\n", "", ErrNoLogin},
		{"empty text", "", "", ErrNoLogin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Login(tc.text)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Expected error %v, got %v", tc.err, err)
			}
			if result != tc.expected {
				t.Errorf("Login(%q) = %q, expected %q", tc.text, result, tc.expected)
			}
		})
	}
}

func TestOTPURL(t *testing.T) {
	url := "otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP"

	t.Run("first line", func(t *testing.T) {
		result, err := OTPURL(url + "\nalice")
		if err != nil {
			t.Fatalf("OTPURL failed: %v", err)
		}
		if result != url {
			t.Errorf("Expected %s, got %s", url, result)
		}
	})

	t.Run("later line", func(t *testing.T) {
		result, err := OTPURL("hunter2\nalice\n" + url + "\n")
		if err != nil {
			t.Fatalf("OTPURL failed: %v", err)
		}
		if result != url {
			t.Errorf("Expected %s, got %s", url, result)
		}
	})

	t.Run("first of many", func(t *testing.T) {
		result, err := OTPURL("hunter2\n" + url + "\notpauth://totp/Other?secret=GEZDGNBV")
		if err != nil {
			t.Fatalf("OTPURL failed: %v", err)
		}
		if result != url {
			t.Errorf("Expected %s, got %s", url, result)
		}
	})

	t.Run("indented line ignored", func(t *testing.T) {
		_, err := OTPURL("hunter2\n  " + url)
		if !errors.Is(err, ErrNoOTPURL) {
			t.Errorf("Expected ErrNoOTPURL, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := OTPURL("hunter2\nalice")
		if !errors.Is(err, ErrNoOTPURL) {
			t.Errorf("Expected ErrNoOTPURL, got %v", err)
		}
	})
}

// RFC 6238 appendix B, SHA1 seed "12345678901234567890"
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestOTPCode(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		unix     int64
		expected string
	}{
		{"eight digits", "otpauth://totp/Test:rfc?secret=" + rfcSecret + "&digits=8&period=30&algorithm=SHA1", 59, "94287082"},
		{"eight digits zero padded", "otpauth://totp/Test:rfc?secret=" + rfcSecret + "&digits=8", 1111111109, "07081804"},
		{"six digits default", "otpauth://totp/Test:rfc?secret=" + rfcSecret, 59, "287082"},
		{"six digits zero padded", "otpauth://totp/Test:rfc?secret=" + rfcSecret, 1111111109, "081804"},
		{"same step same code", "otpauth://totp/Test:rfc?secret=" + rfcSecret + "&digits=8", 31, "94287082"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text := "hunter2\nalice\n" + tc.url + "\n"
			code, err := OTPCode(text, time.Unix(tc.unix, 0))
			if err != nil {
				t.Fatalf("OTPCode failed: %v", err)
			}
			if code != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, code)
			}
		})
	}
}

func TestOTPCodeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"no url", "hunter2\nalice", ErrNoOTPURL},
		{"hotp type", "otpauth://hotp/Test?secret=" + rfcSecret + "&counter=1", ErrInvalidOTPURL},
		{"missing secret", "otpauth://totp/Test?digits=6", ErrInvalidOTPURL},
		{"bad secret", "otpauth://totp/Test?secret=not-base32!", ErrInvalidOTPURL},
		{"bad url", "otpauth://totp/%zz?secret=" + rfcSecret, ErrInvalidOTPURL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := OTPCode(tc.text, time.Unix(59, 0))
			if !errors.Is(err, tc.err) {
				t.Errorf("Expected %v, got %v", tc.err, err)
			}
		})
	}
}
