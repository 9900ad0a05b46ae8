package lobby

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 4
	maxCodeAttempts = 64
)

var ErrCodeSpaceExhausted = errors.New("could not allocate a lobby code")

func newJoinCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}
