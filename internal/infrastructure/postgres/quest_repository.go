package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questledger/questledger/internal/domain/quest"
)

const questColumns = `id, quest_key, title, status, pending, creator, answers, selected_answer,
	draft_tx, decision_tx, answer_tx, publish_tx, success_tx, adjourn_tx, finish_tx, retrieve_tx,
	draft_start_at, draft_end_at, decision_start_at, decision_end_at, answer_start_at, answer_end_at,
	created_at, updated_at`

// QuestRepository implements quest.Repository.
type QuestRepository struct {
	pool *pgxpool.Pool
}

func NewQuestRepository(pool *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{pool: pool}
}

func (r *QuestRepository) Create(ctx context.Context, q *quest.Quest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quests (quest_key, title, status, pending, creator, answers, draft_start_at, draft_end_at, created_at, updated_at)
		VALUES ($1,$2,$3,false,$4,$5,$6,$7,$8,$9)
	`, q.QuestKey, q.Title, q.Status, q.Creator, q.Answers, q.DraftStartAt, q.DraftEndAt, q.CreatedAt, q.UpdatedAt)
	return err
}

func (r *QuestRepository) GetByKey(ctx context.Context, questKey int64) (*quest.Quest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+questColumns+`
		FROM quests WHERE quest_key=$1
	`, questKey)
	return scanQuest(row)
}

func (r *QuestRepository) List(ctx context.Context, filter quest.Filter, limit, offset int) ([]*quest.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests`
	args := []interface{}{}
	where := ""
	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		and("status=$" + strconv.Itoa(len(args)))
	}
	if filter.Creator != nil {
		args = append(args, *filter.Creator)
		and("creator=$" + strconv.Itoa(len(args)))
	}
	if filter.Pending != nil {
		args = append(args, *filter.Pending)
		and("pending=$" + strconv.Itoa(len(args)))
	}
	query += where + " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit, offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quests []*quest.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// AcquirePending is the single-flight gate: one conditional update compares
// status and pending together, so two concurrent callers can never both
// pass.
func (r *QuestRepository) AcquirePending(ctx context.Context, questKey int64, expected quest.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quests SET pending=true, updated_at=NOW()
		WHERE quest_key=$1 AND status=$2 AND pending=false
	`, questKey, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// The swap failed; re-read once to say why.
	var status quest.Status
	var pending bool
	row := r.pool.QueryRow(ctx, `SELECT status, pending FROM quests WHERE quest_key=$1`, questKey)
	if err := row.Scan(&status, &pending); err != nil {
		if err == pgx.ErrNoRows {
			return quest.ErrNotFound
		}
		return err
	}
	if pending {
		return quest.ErrPending
	}
	return fmt.Errorf("%w: %s", quest.ErrInvalidStatus, status)
}

func (r *QuestRepository) ReleasePending(ctx context.Context, questKey int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quests SET pending=false, updated_at=NOW() WHERE quest_key=$1
	`, questKey)
	return err
}

func (r *QuestRepository) RecordTx(ctx context.Context, questKey int64, field quest.TxField, txRef string) error {
	col, err := txColumn(field)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE quests SET `+col+`=$1, updated_at=NOW() WHERE quest_key=$2
	`, txRef, questKey)
	return err
}

func (r *QuestRepository) CompleteTransition(ctx context.Context, questKey int64, target quest.Status, field quest.TxField, txRef string, window *quest.PhaseWindow) error {
	query := `UPDATE quests SET status=$1, pending=false, updated_at=NOW()`
	args := []interface{}{target}
	if field != "" {
		col, err := txColumn(field)
		if err != nil {
			return err
		}
		args = append(args, txRef)
		query += `, ` + col + `=$` + strconv.Itoa(len(args))
	}
	if window != nil {
		startCol, endCol, err := windowColumns(window.Phase)
		if err != nil {
			return err
		}
		args = append(args, window.StartAt)
		query += `, ` + startCol + `=$` + strconv.Itoa(len(args))
		args = append(args, window.EndAt)
		query += `, ` + endCol + `=$` + strconv.Itoa(len(args))
	}
	args = append(args, questKey)
	query += ` WHERE quest_key=$` + strconv.Itoa(len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quest.ErrNotFound
	}
	return nil
}

func (r *QuestRepository) SetAnswers(ctx context.Context, questKey int64, answers []int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quests SET answers=$1, updated_at=NOW()
		WHERE quest_key=$2 AND (answers IS NULL OR cardinality(answers)=0)
	`, answers, questKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quest %d answers are already set", questKey)
	}
	return nil
}

func (r *QuestRepository) SetSelectedAnswer(ctx context.Context, questKey int64, answerKey int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quests SET selected_answer=$1, updated_at=NOW() WHERE quest_key=$2
	`, answerKey, questKey)
	return err
}

func scanQuest(row pgx.Row) (*quest.Quest, error) {
	var q quest.Quest
	if err := row.Scan(
		&q.ID, &q.QuestKey, &q.Title, &q.Status, &q.Pending, &q.Creator, &q.Answers, &q.SelectedAnswer,
		&q.DraftTx, &q.DecisionTx, &q.AnswerTx, &q.PublishTx, &q.SuccessTx, &q.AdjournTx, &q.FinishTx, &q.RetrieveTx,
		&q.DraftStartAt, &q.DraftEndAt, &q.DecisionStartAt, &q.DecisionEndAt, &q.AnswerStartAt, &q.AnswerEndAt,
		&q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// txColumn whitelists the tx reference columns; field values come from
// typed constants but never reach SQL unchecked.
func txColumn(field quest.TxField) (string, error) {
	switch field {
	case quest.TxDraft, quest.TxDecision, quest.TxAnswer, quest.TxPublish,
		quest.TxSuccess, quest.TxAdjourn, quest.TxFinish, quest.TxRetrieve:
		return string(field), nil
	}
	return "", fmt.Errorf("unknown tx field %q", field)
}

func windowColumns(phase quest.WindowPhase) (string, string, error) {
	switch phase {
	case quest.WindowDraft:
		return "draft_start_at", "draft_end_at", nil
	case quest.WindowDecision:
		return "decision_start_at", "decision_end_at", nil
	case quest.WindowAnswer:
		return "answer_start_at", "answer_end_at", nil
	}
	return "", "", fmt.Errorf("unknown window phase %q", phase)
}
