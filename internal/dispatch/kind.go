package dispatch

import "fmt"

// Kind is an operation on a single credential
type Kind int

const (
	CopyID Kind = iota
	CopyPassword
	CopyLogin
	CopyOTP
	FetchOTP
	FetchEntry
)

var kindNames = [...]string{
	CopyID:       "copy-id",
	CopyPassword: "copy-password",
	CopyLogin:    "copy-login",
	CopyOTP:      "copy-otp",
	FetchOTP:     "fetch-otp",
	FetchEntry:   "fetch-entry",
}

// Kinds returns every operation kind
func Kinds() []Kind {
	return []Kind{CopyID, CopyPassword, CopyLogin, CopyOTP, FetchOTP, FetchEntry}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownKind, name)
}
