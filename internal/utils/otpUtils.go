package utils

import (
	"crypto/rand"
)

// GenerateOTPCode returns a uniformly random numeric code of the given
// length. Five digits give only 100k combinations; the attempt lockout on the
// ledger is what keeps brute force impractical, not the code entropy.
func GenerateOTPCode(length int) (string, error) {
	const digits = "0123456789"
	buffer := make([]byte, length)
	_, err := rand.Read(buffer)
	if err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		buffer[i] = digits[int(buffer[i])%len(digits)]
	}

	return string(buffer), nil
}
