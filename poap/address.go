package poap

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress is returned for beneficiaries that are neither an
// Ethereum address nor an ENS name.
var ErrInvalidAddress = errors.New("poap: invalid address")

var (
	ethAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ensRe        = regexp.MustCompile(`(?i)^[^:/\\\s%@#()\[\]{}]+\.[a-z]{2,}$`)
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsEthereumAddress reports whether s is a 0x-prefixed 20-byte hex string.
func IsEthereumAddress(s string) bool {
	return ethAddressRe.MatchString(s)
}

// IsENSName reports whether s looks like an ENS name (e.g. "vitalik.eth").
func IsENSName(s string) bool {
	return ensRe.MatchString(s)
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ChecksumAddress returns the EIP-55 mixed-case encoding of a hex address.
func ChecksumAddress(s string) (string, error) {
	if !IsEthereumAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	lower := strings.ToLower(s[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out), nil
}

// ValidateAddress accepts an ENS name or an Ethereum address. All-lowercase
// and all-uppercase hex addresses are accepted as is; mixed-case addresses
// must carry a valid EIP-55 checksum.
func ValidateAddress(s string) error {
	if IsENSName(s) {
		return nil
	}
	if !IsEthereumAddress(s) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}

	sum, err := ChecksumAddress(s)
	if err != nil {
		return err
	}
	if sum != s {
		return fmt.Errorf("%w: bad checksum for %q", ErrInvalidAddress, s)
	}
	return nil
}
