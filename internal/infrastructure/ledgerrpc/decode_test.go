package ledgerrpc

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questledger/questledger/internal/domain/ledger"
)

func appendLE64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

func governanceBytes(version uint8, questKey int64, flags uint8, selected int64) []byte {
	buf := []byte{version}
	buf = appendLE64(buf, questKey)
	buf = append(buf, flags)
	return appendLE64(buf, selected)
}

func TestDecodeGovernanceItem(t *testing.T) {
	t.Run("v1 flags", func(t *testing.T) {
		data := governanceBytes(1, 42, flagDecisionStarted|flagPublished, 0)

		item, err := decodeGovernanceItem(data)

		require.NoError(t, err)
		assert.Equal(t, int64(42), item.QuestKey)
		assert.True(t, item.Exists)
		assert.True(t, item.DecisionStarted)
		assert.True(t, item.Published)
		assert.False(t, item.Finalized)
		assert.Nil(t, item.SelectedAnswer)
	})

	t.Run("selected answer surfaces only when flagged", func(t *testing.T) {
		data := governanceBytes(1, 42, flagDecisionStarted|flagAnswerSelected, 7)

		item, err := decodeGovernanceItem(data)

		require.NoError(t, err)
		require.NotNil(t, item.SelectedAnswer)
		assert.Equal(t, int64(7), *item.SelectedAnswer)
	})

	t.Run("v2 ignores trailing bytes", func(t *testing.T) {
		data := governanceBytes(2, 42, flagFinalized, 3)
		data = append(data, 0xAA, 0xBB)

		item, err := decodeGovernanceItem(data)

		require.NoError(t, err)
		assert.Equal(t, uint8(2), item.SchemaVersion)
		assert.True(t, item.Finalized)
	})

	t.Run("unknown version fails loudly", func(t *testing.T) {
		data := governanceBytes(9, 42, 0, 0)

		_, err := decodeGovernanceItem(data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported schema version")
	})

	t.Run("truncated data", func(t *testing.T) {
		_, err := decodeGovernanceItem([]byte{1, 42})
		require.Error(t, err)

		_, err = decodeGovernanceItem(nil)
		require.Error(t, err)
	})
}

func TestDecodeProgramConfig(t *testing.T) {
	buf := []byte{1}
	authority := make([]byte, 32)
	authority[0] = 0xFF
	buf = append(buf, authority...)
	buf = append(buf, 0x2C, 0x01) // 300 bps
	buf = append(buf, 1)

	cfg, err := decodeProgramConfig(buf)

	require.NoError(t, err)
	assert.Equal(t, uint16(300), cfg.FeeBps)
	assert.True(t, cfg.Paused)
	assert.Len(t, cfg.Authority, 64)
}

func TestDecodeVoteTallies(t *testing.T) {
	buf := []byte{1}
	buf = appendLE64(buf, 42)
	buf = append(buf, 3, 0) // three records

	record := func(voter string, phase uint8, option, answer, power int64) {
		buf = append(buf, uint8(len(voter)))
		buf = append(buf, voter...)
		buf = append(buf, phase)
		buf = appendLE64(buf, option)
		buf = appendLE64(buf, answer)
		buf = appendLE64(buf, power)
	}
	record("alice", 1, 1, 0, 10)
	record("bob", 1, 2, 0, 25)
	record("alice", 2, 1, 0, 10)

	tallies, err := decodeVoteTallies(buf)

	require.NoError(t, err)
	assert.Equal(t, int64(42), tallies.QuestKey)
	require.Len(t, tallies.Records, 3)
	assert.Equal(t, ledger.OpVoteDraft, tallies.Records[0].Phase)
	assert.Equal(t, ledger.OpVoteDecision, tallies.Records[2].Phase)
	// Only draft-round votes feed the decision totals.
	assert.Equal(t, map[int64]int64{1: 10, 2: 25}, tallies.OptionTotals)
}

func TestDeriveAddress(t *testing.T) {
	a := governanceAddress("prog-1", 42)
	b := governanceAddress("prog-1", 42)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, governanceAddress("prog-1", 43))
	assert.NotEqual(t, a, governanceAddress("prog-2", 42))
	assert.NotEqual(t, a, tallyAddress("prog-1", 42))
}

func TestEncodeCall(t *testing.T) {
	msg := encodeCall(ledger.OpSetAnswer, 42, 7)

	require.Len(t, msg, 2+8+8)
	assert.Equal(t, uint8(governanceVersion1), msg[0])
	assert.Equal(t, opTags[ledger.OpSetAnswer], msg[1])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(msg[2:10]))
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(msg[10:18]))
}

func TestEncodeVote(t *testing.T) {
	msg, err := encodeVote(ledger.OpVoteDraft, 42, "alice", 2, 10)
	require.NoError(t, err)

	base := encodeCall(ledger.OpVoteDraft, 42, 2, 10)
	require.Greater(t, len(msg), len(base))
	assert.Equal(t, base, msg[:len(base)])
	assert.Equal(t, uint8(5), msg[len(base)])
	assert.Equal(t, "alice", string(msg[len(base)+1:]))
}

func TestEncodeVote_RejectsOverlongVoter(t *testing.T) {
	voter := strings.Repeat("x", maxVoterLen+1)

	_, err := encodeVote(ledger.OpVoteDraft, 42, voter, 2, 10)

	var cerr *ledger.ContractError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "VoterTooLong", cerr.Code)

	msg, err := encodeVote(ledger.OpVoteDraft, 42, strings.Repeat("x", maxVoterLen), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(maxVoterLen), msg[len(msg)-maxVoterLen-1])
}
