package ledgerrpc

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/questledger/questledger/internal/domain/ledger"
)

// Gateway implements ledger.Gateway over JSON-RPC against the ledger node.
// It owns serialization and transport only; its callers decide what a
// failure means.
type Gateway struct {
	client    *Client
	programID string
	logger    zerolog.Logger
}

// NewGateway creates a ledger gateway for one program deployment.
func NewGateway(rpcURL, programID string, timeout time.Duration, logger zerolog.Logger) *Gateway {
	return &Gateway{
		client:    NewClient(rpcURL, timeout),
		programID: programID,
		logger:    logger.With().Str("component", "ledger-gateway").Logger(),
	}
}

// opTags map operations to the program's instruction discriminators.
var opTags = map[ledger.Operation]uint8{
	ledger.OpPublish:        1,
	ledger.OpVoteDraft:      2,
	ledger.OpVoteDecision:   3,
	ledger.OpVoteAnswer:     4,
	ledger.OpStartDecision:  5,
	ledger.OpSetDecision:    6,
	ledger.OpMakeDecision:   7,
	ledger.OpSetAnswer:      8,
	ledger.OpFinalizeAnswer: 9,
	ledger.OpFinish:         10,
	ledger.OpSuccess:        11,
	ledger.OpAdjourn:        12,
	ledger.OpRetrieve:       13,
}

func (g *Gateway) StartDecision(ctx context.Context, auth ledger.Authority, questKey int64, window ledger.Window) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpStartDecision, questKey, window.StartAt.Unix(), window.EndAt.Unix())
	return g.submit(ctx, auth, ledger.OpStartDecision, questKey, msg)
}

func (g *Gateway) MakeDecision(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpMakeDecision, questKey)
	return g.submit(ctx, auth, ledger.OpMakeDecision, questKey, msg)
}

func (g *Gateway) SetDecision(ctx context.Context, auth ledger.Authority, questKey int64, option int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpSetDecision, questKey, option)
	return g.submit(ctx, auth, ledger.OpSetDecision, questKey, msg)
}

func (g *Gateway) Publish(ctx context.Context, auth ledger.Authority, questKey int64, answers []int64) (ledger.SubmitResult, error) {
	args := make([]int64, 0, len(answers)+1)
	args = append(args, int64(len(answers)))
	args = append(args, answers...)
	msg := encodeCall(ledger.OpPublish, questKey, args...)
	return g.submit(ctx, auth, ledger.OpPublish, questKey, msg)
}

func (g *Gateway) SetAnswer(ctx context.Context, auth ledger.Authority, questKey int64, answerKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpSetAnswer, questKey, answerKey)
	return g.submit(ctx, auth, ledger.OpSetAnswer, questKey, msg)
}

func (g *Gateway) FinalizeAnswer(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpFinalizeAnswer, questKey)
	return g.submit(ctx, auth, ledger.OpFinalizeAnswer, questKey, msg)
}

func (g *Gateway) Success(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpSuccess, questKey)
	return g.submit(ctx, auth, ledger.OpSuccess, questKey, msg)
}

func (g *Gateway) Finish(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpFinish, questKey)
	return g.submit(ctx, auth, ledger.OpFinish, questKey, msg)
}

func (g *Gateway) Adjourn(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpAdjourn, questKey)
	return g.submit(ctx, auth, ledger.OpAdjourn, questKey, msg)
}

func (g *Gateway) Retrieve(ctx context.Context, auth ledger.Authority, questKey int64) (ledger.SubmitResult, error) {
	msg := encodeCall(ledger.OpRetrieve, questKey)
	return g.submit(ctx, auth, ledger.OpRetrieve, questKey, msg)
}

func (g *Gateway) VoteDraft(ctx context.Context, auth ledger.Authority, questKey int64, voter string, option, power int64) (ledger.SubmitResult, error) {
	msg, err := encodeVote(ledger.OpVoteDraft, questKey, voter, option, power)
	if err != nil {
		return ledger.SubmitResult{}, err
	}
	return g.submit(ctx, auth, ledger.OpVoteDraft, questKey, msg)
}

func (g *Gateway) VoteDecision(ctx context.Context, auth ledger.Authority, questKey int64, voter string, option, power int64) (ledger.SubmitResult, error) {
	msg, err := encodeVote(ledger.OpVoteDecision, questKey, voter, option, power)
	if err != nil {
		return ledger.SubmitResult{}, err
	}
	return g.submit(ctx, auth, ledger.OpVoteDecision, questKey, msg)
}

func (g *Gateway) VoteAnswer(ctx context.Context, auth ledger.Authority, questKey int64, voter string, answerKey, power int64) (ledger.SubmitResult, error) {
	msg, err := encodeVote(ledger.OpVoteAnswer, questKey, voter, answerKey, power)
	if err != nil {
		return ledger.SubmitResult{}, err
	}
	return g.submit(ctx, auth, ledger.OpVoteAnswer, questKey, msg)
}

// BuildUnsigned encodes a call for an external signer. params carries
// operation-specific arguments, all int64-valued.
func (g *Gateway) BuildUnsigned(ctx context.Context, op ledger.Operation, questKey int64, params map[string]interface{}) (*ledger.UnsignedPayload, error) {
	args, err := unsignedArgs(op, params)
	if err != nil {
		return nil, err
	}
	return &ledger.UnsignedPayload{
		Operation: op,
		QuestKey:  questKey,
		Address:   governanceAddress(g.programID, questKey),
		Message:   encodeCall(op, questKey, args...),
	}, nil
}

func (g *Gateway) FetchConfig(ctx context.Context) (*ledger.ProgramConfig, error) {
	data, err := g.fetchAccount(ctx, configAddress(g.programID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &ledger.ContractError{Code: "ConfigMissing", Detail: "program config account does not exist"}
	}
	return decodeProgramConfig(data)
}

func (g *Gateway) FetchGovernanceItem(ctx context.Context, questKey int64) (*ledger.GovernanceItem, error) {
	data, err := g.fetchAccount(ctx, governanceAddress(g.programID, questKey))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &ledger.GovernanceItem{QuestKey: questKey, Exists: false}, nil
	}
	return decodeGovernanceItem(data)
}

func (g *Gateway) FetchVoteTallies(ctx context.Context, questKey int64) (*ledger.VoteTallies, error) {
	data, err := g.fetchAccount(ctx, tallyAddress(g.programID, questKey))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &ledger.VoteTallies{QuestKey: questKey, OptionTotals: map[int64]int64{}}, nil
	}
	return decodeVoteTallies(data)
}

func (g *Gateway) TransactionStatus(ctx context.Context, txRef string) (ledger.TxStatus, error) {
	var result struct {
		Status string `json:"status"`
	}
	err := g.client.Call(ctx, "getTransactionStatus", []interface{}{txRef}, &result)
	if err != nil {
		return ledger.TxUnknown, err
	}
	switch result.Status {
	case "confirmed", "finalized":
		return ledger.TxConfirmed, nil
	case "failed":
		return ledger.TxFailed, nil
	case "pending", "processed":
		return ledger.TxPending, nil
	}
	return ledger.TxUnknown, nil
}

type submitParams struct {
	Program   string `json:"program"`
	Address   string `json:"address"`
	Message   []byte `json:"message"`
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"publicKey"`
}

type submitResponse struct {
	TxRef     string `json:"txRef"`
	Confirmed bool   `json:"confirmed"`
}

func (g *Gateway) submit(ctx context.Context, auth ledger.Authority, op ledger.Operation, questKey int64, msg []byte) (ledger.SubmitResult, error) {
	params := submitParams{
		Program:   g.programID,
		Address:   governanceAddress(g.programID, questKey),
		Message:   msg,
		Signature: auth.Sign(msg),
		PublicKey: auth.Public(),
	}
	var resp submitResponse
	if err := g.client.Call(ctx, "sendTransaction", params, &resp); err != nil {
		return ledger.SubmitResult{}, g.wrapError(op, err)
	}
	g.logger.Debug().
		Str("operation", string(op)).
		Int64("quest_key", questKey).
		Str("tx_ref", resp.TxRef).
		Bool("confirmed", resp.Confirmed).
		Msg("transaction submitted")
	return ledger.SubmitResult{TxRef: resp.TxRef, Confirmed: resp.Confirmed}, nil
}

// wrapError shapes node failures into the two domain error types. A program
// rejection carries a code and logs; anything else is transport.
func (g *Gateway) wrapError(op ledger.Operation, err error) error {
	if rerr, ok := err.(*rpcError); ok {
		if rerr.Data != nil && rerr.Data.Code != "" {
			return &ledger.ContractError{
				Op:     op,
				Code:   rerr.Data.Code,
				Detail: rerr.Message,
				Logs:   rerr.Data.Logs,
			}
		}
		serr := &ledger.SubmitError{Op: op, Message: rerr.Message, Cause: rerr}
		if rerr.Data != nil {
			serr.TxRef = rerr.Data.TxRef
		}
		return serr
	}
	return &ledger.SubmitError{Op: op, Message: err.Error(), Cause: err}
}

func (g *Gateway) fetchAccount(ctx context.Context, address string) ([]byte, error) {
	var result struct {
		Exists bool   `json:"exists"`
		Data   []byte `json:"data"`
	}
	if err := g.client.Call(ctx, "getAccountInfo", []interface{}{address}, &result); err != nil {
		return nil, err
	}
	if !result.Exists {
		return nil, nil
	}
	return result.Data, nil
}

// encodeCall builds the signed message body: schema version, instruction
// tag, quest key, then int64 arguments, all little endian.
func encodeCall(op ledger.Operation, questKey int64, args ...int64) []byte {
	buf := make([]byte, 0, 10+8*len(args))
	buf = append(buf, governanceVersion1, opTags[op])
	buf = appendI64(buf, questKey)
	for _, a := range args {
		buf = appendI64(buf, a)
	}
	return buf
}

// maxVoterLen is the largest voter identity one length byte can describe.
const maxVoterLen = 255

// encodeVote appends the voter identity after the fixed header.
func encodeVote(op ledger.Operation, questKey int64, voter string, option, power int64) ([]byte, error) {
	if len(voter) > maxVoterLen {
		return nil, &ledger.ContractError{
			Op:     op,
			Code:   "VoterTooLong",
			Detail: fmt.Sprintf("voter identity is %d bytes; the wire format allows at most %d", len(voter), maxVoterLen),
		}
	}
	buf := encodeCall(op, questKey, option, power)
	buf = append(buf, uint8(len(voter)))
	return append(buf, voter...), nil
}

func appendI64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

func unsignedArgs(op ledger.Operation, params map[string]interface{}) ([]int64, error) {
	read := func(key string) (int64, bool) {
		v, ok := params[key]
		if !ok {
			return 0, false
		}
		switch n := v.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case float64:
			return int64(n), true
		}
		return 0, false
	}
	switch op {
	case ledger.OpSetDecision, ledger.OpSetAnswer:
		if v, ok := read("option"); ok {
			return []int64{v}, nil
		}
		return nil, &ledger.ContractError{Op: op, Code: "MissingArgument", Detail: "option is required"}
	case ledger.OpStartDecision:
		start, ok1 := read("startAt")
		end, ok2 := read("endAt")
		if ok1 && ok2 {
			return []int64{start, end}, nil
		}
		return nil, &ledger.ContractError{Op: op, Code: "MissingArgument", Detail: "startAt and endAt are required"}
	}
	return nil, nil
}
