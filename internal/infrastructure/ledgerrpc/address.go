package ledgerrpc

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Account seeds. Every program account address is derived, never stored:
// blake2b-256 over (program id, seed, quest key).
const (
	seedConfig     = "config"
	seedGovernance = "governance"
	seedTally      = "tally"
)

func deriveAddress(programID, seed string, questKey int64) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(programID))
	h.Write([]byte(seed))
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(questKey))
	h.Write(key[:])
	return hex.EncodeToString(h.Sum(nil))
}

func configAddress(programID string) string {
	return deriveAddress(programID, seedConfig, 0)
}

func governanceAddress(programID string, questKey int64) string {
	return deriveAddress(programID, seedGovernance, questKey)
}

func tallyAddress(programID string, questKey int64) string {
	return deriveAddress(programID, seedTally, questKey)
}
