package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandBytes32 returns 32 cryptographically random bytes.
func RandBytes32() [32]byte {
	var b [32]byte
	_, err := rand.Read(b[:])
	if err != nil {
		panic(err)
	}
	return b
}

// RandTxID returns a random 64-character hex string shaped like a
// transaction id. Test helper, mostly.
func RandTxID() string {
	b := RandBytes32()
	return hex.EncodeToString(b[:])
}
