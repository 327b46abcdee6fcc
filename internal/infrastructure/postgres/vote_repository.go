package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questledger/questledger/internal/domain/vote"
)

const voteColumns = `id, quest_key, voter, draft_option, success_option, answer_key, power,
	draft_tx, success_tx, answer_tx, reward, archived, created_at, updated_at`

// VoteRepository implements vote.Repository.
type VoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

func (r *VoteRepository) Create(ctx context.Context, v *vote.Vote) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO votes (quest_key, voter, power, reward, archived, created_at, updated_at)
		VALUES ($1,$2,$3,0,false,$4,$5)
		ON CONFLICT (quest_key, voter) DO NOTHING
	`, v.QuestKey, v.Voter, v.Power, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *VoteRepository) GetByQuestAndVoter(ctx context.Context, questKey int64, voter string) (*vote.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+voteColumns+`
		FROM votes WHERE quest_key=$1 AND voter=$2
	`, questKey, voter)
	return scanVote(row)
}

func (r *VoteRepository) ListByQuest(ctx context.Context, questKey int64) ([]*vote.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+voteColumns+`
		FROM votes WHERE quest_key=$1 ORDER BY created_at ASC
	`, questKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var votes []*vote.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// RecordPhase re-checks the prior phase column in the WHERE clause so the
// draft, success, answer ordering holds even against concurrent writers.
func (r *VoteRepository) RecordPhase(ctx context.Context, questKey int64, voter string, rec vote.PhaseRecord) error {
	var query string
	switch rec.Phase {
	case vote.PhaseDraft:
		query = `
			UPDATE votes SET draft_option=$1, draft_tx=$2, power=$3, updated_at=NOW()
			WHERE quest_key=$4 AND voter=$5 AND archived=false`
	case vote.PhaseSuccess:
		query = `
			UPDATE votes SET success_option=$1, success_tx=$2, power=$3, updated_at=NOW()
			WHERE quest_key=$4 AND voter=$5 AND archived=false AND draft_option IS NOT NULL`
	case vote.PhaseAnswer:
		query = `
			UPDATE votes SET answer_key=$1, answer_tx=$2, power=$3, updated_at=NOW()
			WHERE quest_key=$4 AND voter=$5 AND archived=false AND success_option IS NOT NULL`
	default:
		return fmt.Errorf("unknown vote phase %q", rec.Phase)
	}
	tag, err := r.pool.Exec(ctx, query, rec.Option, rec.TxRef, rec.Power, questKey, voter)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vote.ErrPhaseOrder
	}
	return nil
}

func (r *VoteRepository) SetReward(ctx context.Context, questKey int64, voter string, reward int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE votes SET reward=$1, updated_at=NOW() WHERE quest_key=$2 AND voter=$3
	`, reward, questKey, voter)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vote.ErrNotFound
	}
	return nil
}

func (r *VoteRepository) Archive(ctx context.Context, questKey int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE votes SET archived=true, updated_at=NOW() WHERE quest_key=$1
	`, questKey)
	return err
}

func scanVote(row pgx.Row) (*vote.Vote, error) {
	var v vote.Vote
	if err := row.Scan(
		&v.ID, &v.QuestKey, &v.Voter, &v.DraftOption, &v.SuccessOption, &v.AnswerKey, &v.Power,
		&v.DraftTx, &v.SuccessTx, &v.AnswerTx, &v.Reward, &v.Archived, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
