package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"kanakku/internal/amqp"
	"kanakku/internal/core"
	"kanakku/internal/ledger"
	"kanakku/internal/locale"
	"kanakku/internal/store"
	"kanakku/internal/store/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newService(t *testing.T, pub Publisher, strict bool, seed ...core.Transaction) (*LedgerService, *ledger.Engine) {
	t.Helper()
	engine := ledger.NewEngine(ledger.EngineConfig{CacheSize: 4, CacheTTL: time.Minute, Strict: strict})
	return NewLedgerService(memory.New(seed...), engine, pub, "", nil), engine
}

func newTxn(day int, typ core.TransactionType, amount int64) core.Transaction {
	return core.Transaction{
		Date:     time.Date(2024, time.January, day, 10, 0, 0, 0, time.UTC),
		Type:     typ,
		Amount:   decimal.NewFromInt(amount),
		Category: "General",
	}
}

var english = locale.Gregorian(language.English, time.UTC)

func TestLedgerService_AddAndView(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newService(t, pub, false)

	first, err := svc.Add(ctx, newTxn(1, core.Income, 100))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = svc.Add(ctx, newTxn(5, core.Expense, 40))
	require.NoError(t, err)
	_, err = svc.Add(ctx, newTxn(10, core.Income, 10))
	require.NoError(t, err)

	view, err := svc.View(ctx, english)
	require.NoError(t, err)
	assert.Equal(t, []string{"January 2024"}, view.Months.Labels())
	assert.Equal(t, "70", view.Summary.Balance.String())
	assert.Equal(t, first.ID, view.Entries[2].ID)

	assert.Equal(t, int64(3), svc.Version())
	require.Len(t, pub.msgs, 3)
	assert.Equal(t, amqp.OpSave, pub.msgs[0].Op)
	assert.Equal(t, svc.Origin(), pub.msgs[0].Origin)
	assert.Equal(t, int64(3), pub.msgs[2].Version)
}

func TestLedgerService_AddIgnoresCallerID(t *testing.T) {
	svc, _ := newService(t, nil, false)
	in := newTxn(1, core.Income, 1)
	in.ID = "chosen"

	out, err := svc.Add(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen", out.ID)
}

func TestLedgerService_AddInvalid(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, pub, false)

	bad := newTxn(1, core.Income, 1)
	bad.Category = ""
	_, err := svc.Add(context.Background(), bad)

	assert.ErrorIs(t, err, core.ErrMalformedTransaction)
	assert.Empty(t, pub.msgs)
	assert.Equal(t, int64(0), svc.Version())
}

func TestLedgerService_Edit(t *testing.T) {
	ctx := context.Background()
	svc, engine := newService(t, nil, false)

	a, _ := svc.Add(ctx, newTxn(1, core.Income, 100))
	_, _ = svc.Add(ctx, newTxn(2, core.Expense, 30))

	_, err := svc.View(ctx, english)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.Size())

	edited, err := svc.Edit(ctx, a.ID, newTxn(1, core.Income, 200))
	require.NoError(t, err)
	assert.Equal(t, a.ID, edited.ID)
	assert.Equal(t, 0, engine.Size(), "edit must purge derived ledgers")

	view, err := svc.View(ctx, english)
	require.NoError(t, err)
	assert.Equal(t, "170", view.Summary.Balance.String())

	txns, _ := svc.Transactions(ctx)
	assert.Equal(t, a.ID, txns[0].ID, "edit keeps position")

	_, err = svc.Edit(ctx, "missing", newTxn(1, core.Income, 1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// racingStore deletes the target just before the write lands, as a concurrent
// DELETE request would.
type racingStore struct {
	*memory.Store
}

func (r racingStore) Update(ctx context.Context, txn core.Transaction) error {
	_ = r.Store.Delete(ctx, txn.ID)
	return r.Store.Update(ctx, txn)
}

func TestLedgerService_EditAfterConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	engine := ledger.NewEngine(ledger.EngineConfig{CacheSize: 4, CacheTTL: time.Minute})
	st := racingStore{memory.New()}
	svc := NewLedgerService(st, engine, pub, "", nil)

	a, err := svc.Add(ctx, newTxn(1, core.Income, 100))
	require.NoError(t, err)

	_, err = svc.Edit(ctx, a.ID, newTxn(1, core.Income, 200))
	require.ErrorIs(t, err, store.ErrNotFound)

	txns, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, txns, "edit must not bring back a deleted transaction")
	assert.Equal(t, int64(1), svc.Version())
	assert.Len(t, pub.msgs, 1)
}

func TestLedgerService_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newService(t, pub, false)

	a, _ := svc.Add(ctx, newTxn(1, core.Income, 100))
	_, _ = svc.Add(ctx, newTxn(2, core.Expense, 30))

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), store.ErrNotFound)

	view, _ := svc.View(ctx, english)
	assert.Equal(t, "-30", view.Summary.Balance.String())

	require.NoError(t, svc.Clear(ctx))
	require.NoError(t, svc.Clear(ctx))

	view, err := svc.View(ctx, english)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
	assert.Equal(t, 0, view.Months.Len())

	ops := make([]amqp.ChangeOp, len(pub.msgs))
	for i, m := range pub.msgs {
		ops[i] = m.Op
	}
	assert.Equal(t, []amqp.ChangeOp{amqp.OpSave, amqp.OpSave, amqp.OpDelete, amqp.OpClear, amqp.OpClear}, ops)
	assert.Equal(t, a.ID, pub.msgs[2].ID)
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(t, pub, false)

	_, err := svc.Add(context.Background(), newTxn(1, core.Income, 1))
	require.NoError(t, err)

	txns, _ := svc.Transactions(context.Background())
	assert.Len(t, txns, 1)
}

func TestLedgerService_StrictView(t *testing.T) {
	bad := newTxn(1, core.Expense, 5)
	bad.ID = "seeded"
	bad.Amount = decimal.NewFromInt(-5)

	svc, _ := newService(t, nil, true, bad)
	_, err := svc.View(context.Background(), english)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "seeded", verr.ID)
}

func TestLedgerService_ViewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil, false)
	_, _ = svc.Add(ctx, newTxn(3, core.Income, 7))
	_, _ = svc.Add(ctx, newTxn(3, core.Expense, 2))

	a, err := svc.View(ctx, english)
	require.NoError(t, err)
	b, err := svc.View(ctx, english)
	require.NoError(t, err)

	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.Months.Groups(), b.Months.Groups())
}
