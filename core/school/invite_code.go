package school

import (
	"crypto/rand"
	"math/big"
)

const (
	inviteCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLen   = 6
)

// newInviteCode returns a random 6-character [A-Z0-9] code.
func newInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeChars)))
	code := make([]byte, inviteCodeLen)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeChars[n.Int64()]
	}
	return string(code), nil
}
