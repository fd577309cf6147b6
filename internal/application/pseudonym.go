package app

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Pseudonym короткий необратимый идентификатор пациента для логов.
func Pseudonym(patientID string) string {
	if patientID == "" {
		return "-"
	}
	sum := blake2b.Sum256([]byte(patientID))
	return hex.EncodeToString(sum[:6])
}
