package firebase

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

func isCircuitFailure(err error) bool {
	return errors.Is(err, errFirebaseTransient)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
