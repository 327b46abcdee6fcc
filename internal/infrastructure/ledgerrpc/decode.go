package ledgerrpc

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/questledger/questledger/internal/domain/ledger"
)

// Account data is versioned on its first byte. Decoders are keyed by that
// byte so a program upgrade that bumps the schema fails loudly here instead
// of misreading offsets.

const (
	governanceVersion1 = 1
	governanceVersion2 = 2
	configVersion1     = 1
	tallyVersion1      = 1
)

// governance flag bits, stable across versions.
const (
	flagDecisionStarted  = 1 << 0
	flagDecisionRecorded = 1 << 1
	flagPublished        = 1 << 2
	flagAnswerSelected   = 1 << 3
	flagFinalized        = 1 << 4
	flagAdjourned        = 1 << 5
)

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) u8() (uint8, error) {
	if r.off+1 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *byteReader) u16() (uint16, error) {
	if r.off+2 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *byteReader) i64() (int64, error) {
	if r.off+8 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return int64(v), nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	v := r.data[r.off : r.off+n]
	r.off += n
	return v, nil
}

func decodeGovernanceItem(data []byte) (*ledger.GovernanceItem, error) {
	r := &byteReader{data: data}
	version, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("governance account: %w", err)
	}
	switch version {
	case governanceVersion1, governanceVersion2:
		return decodeGovernanceV1(r, version)
	}
	return nil, fmt.Errorf("governance account: unsupported schema version %d", version)
}

// decodeGovernanceV1 reads the v1 layout. v2 keeps the same prefix and
// appends the answer set, which this layer does not need; trailing bytes
// are ignored.
func decodeGovernanceV1(r *byteReader, version uint8) (*ledger.GovernanceItem, error) {
	questKey, err := r.i64()
	if err != nil {
		return nil, fmt.Errorf("governance account: quest key: %w", err)
	}
	flags, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("governance account: flags: %w", err)
	}
	selected, err := r.i64()
	if err != nil {
		return nil, fmt.Errorf("governance account: selected answer: %w", err)
	}
	item := &ledger.GovernanceItem{
		SchemaVersion:    version,
		QuestKey:         questKey,
		Exists:           true,
		DecisionStarted:  flags&flagDecisionStarted != 0,
		DecisionRecorded: flags&flagDecisionRecorded != 0,
		Published:        flags&flagPublished != 0,
		AnswerSelected:   flags&flagAnswerSelected != 0,
		Finalized:        flags&flagFinalized != 0,
		Adjourned:        flags&flagAdjourned != 0,
	}
	if item.AnswerSelected || item.DecisionRecorded {
		item.SelectedAnswer = &selected
	}
	return item, nil
}

func decodeProgramConfig(data []byte) (*ledger.ProgramConfig, error) {
	r := &byteReader{data: data}
	version, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("config account: %w", err)
	}
	if version != configVersion1 {
		return nil, fmt.Errorf("config account: unsupported schema version %d", version)
	}
	authority, err := r.bytes(32)
	if err != nil {
		return nil, fmt.Errorf("config account: authority: %w", err)
	}
	feeBps, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("config account: fee: %w", err)
	}
	paused, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("config account: paused: %w", err)
	}
	return &ledger.ProgramConfig{
		SchemaVersion: version,
		Authority:     hex.EncodeToString(authority),
		FeeBps:        feeBps,
		Paused:        paused != 0,
	}, nil
}

func decodeVoteTallies(data []byte) (*ledger.VoteTallies, error) {
	r := &byteReader{data: data}
	version, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("tally account: %w", err)
	}
	if version != tallyVersion1 {
		return nil, fmt.Errorf("tally account: unsupported schema version %d", version)
	}
	questKey, err := r.i64()
	if err != nil {
		return nil, fmt.Errorf("tally account: quest key: %w", err)
	}
	count, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("tally account: record count: %w", err)
	}

	tallies := &ledger.VoteTallies{
		QuestKey:     questKey,
		OptionTotals: make(map[int64]int64),
	}
	for i := 0; i < int(count); i++ {
		voterLen, err := r.u8()
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: %w", i, err)
		}
		voter, err := r.bytes(int(voterLen))
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: voter: %w", i, err)
		}
		phase, err := r.u8()
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: phase: %w", i, err)
		}
		option, err := r.i64()
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: option: %w", i, err)
		}
		answerKey, err := r.i64()
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: answer key: %w", i, err)
		}
		power, err := r.i64()
		if err != nil {
			return nil, fmt.Errorf("tally account: record %d: power: %w", i, err)
		}
		rec := ledger.VoteRecord{
			Voter:     string(voter),
			Phase:     votePhaseOp(phase),
			Option:    option,
			AnswerKey: answerKey,
			Power:     power,
		}
		tallies.Records = append(tallies.Records, rec)
		// Totals aggregate the draft round; that is the tally the decision
		// phase acts on.
		if rec.Phase == ledger.OpVoteDraft {
			tallies.OptionTotals[option] += power
		}
	}
	return tallies, nil
}

func votePhaseOp(phase uint8) ledger.Operation {
	switch phase {
	case 1:
		return ledger.OpVoteDraft
	case 2:
		return ledger.OpVoteDecision
	case 3:
		return ledger.OpVoteAnswer
	}
	return ""
}
