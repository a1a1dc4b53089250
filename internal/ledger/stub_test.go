package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookledger/internal/compositekey"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/queryir"
)

func TestStub_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	_, ok, err := stub.GetState(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report not present")

	require.NoError(t, stub.PutState(ctx, "bob@example.com", []byte(`{"id":"bob"}`)))
	value, ok, err := stub.GetState(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"bob"}`, string(value))

	require.NoError(t, stub.DelState(ctx, "bob@example.com"))
	_, ok, err = stub.GetState(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, stub.DelState(ctx, "never-written"))
}

func TestStub_EmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	require.NoError(t, stub.PutState(ctx, "k", []byte{}))
	value, ok, err := stub.GetState(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, value)
}

func TestStub_EmptyKey(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	assert.ErrorIs(t, stub.PutState(ctx, "", []byte("x")), ErrEmptyKey)
	_, _, err := stub.GetState(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestStub_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)

	stub := beginTest(t, l, "user", "tx1")
	require.NoError(t, stub.PutState(ctx, "k", []byte("v")))
	require.NoError(t, stub.Rollback())

	_, ok, err := l.Get(ctx, "user", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := l.History(ctx, "user", "k")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStub_CommitAndHistory(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)

	first := beginTest(t, l, "user", "tx1")
	require.NoError(t, first.PutState(ctx, "k", []byte("v1")))
	require.NoError(t, first.Commit())

	second := beginTest(t, l, "user", "tx2")
	require.NoError(t, second.PutState(ctx, "k", []byte("v2")))
	require.NoError(t, second.DelState(ctx, "k"))
	require.NoError(t, second.Commit())

	history, err := l.History(ctx, "user", "k")
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "tx1", history[0].TxID)
	assert.Equal(t, "v1", string(history[0].Value))
	assert.False(t, history[0].IsDelete)
	assert.Equal(t, "2024-03-01T12:00:00Z", history[0].Timestamp)

	assert.Equal(t, "v2", string(history[1].Value))
	assert.True(t, history[2].IsDelete)
	assert.Nil(t, history[2].Value)
}

func TestStub_CommitTwice(t *testing.T) {
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")
	require.NoError(t, stub.Commit())
	assert.Error(t, stub.Commit())
	assert.NoError(t, stub.Rollback())
}

func TestStub_NamespacesIsolated(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	require.NoError(t, stub.PutState(ctx, "shared", []byte("from user")))
	room := stub.WithNamespace("room")
	_, ok, err := room.GetState(ctx, "shared")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "room", room.Namespace())
	assert.Equal(t, "tx1", room.TxID())
}

func TestStub_GetStateByRange(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, stub.PutState(ctx, k, []byte(`{}`)))
	}
	ck, err := compositekey.Build("ownership", []string{"a"})
	require.NoError(t, err)
	require.NoError(t, stub.PutState(ctx, ck, []byte(`{}`)))

	it, err := stub.GetStateByRange(ctx, "b", "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, drainKeys(t, it))

	it, err = stub.GetStateByRange(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, drainKeys(t, it), "composite keys excluded")

	_, err = stub.GetStateByRange(ctx, ck, "")
	var mk *compositekey.MalformedKeyError
	assert.True(t, errors.As(err, &mk))
}

func TestStub_GetStateByPartialCompositeKey(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "ownership", "tx1")

	put := func(owner, isbn string) {
		key, err := compositekey.Build("ownership", []string{owner, isbn})
		require.NoError(t, err)
		require.NoError(t, stub.PutState(ctx, key, []byte(`{}`)))
	}
	put("alice@example.com", "9784274068560")
	put("alice@example.com", "9780262033848")
	put("alicia@example.com", "9784274068560")

	it, err := stub.GetStateByPartialCompositeKey(ctx, "ownership", []string{"alice@example.com"})
	require.NoError(t, err)
	keys := drainKeys(t, it)
	require.Len(t, keys, 2)
	for _, k := range keys {
		_, attrs, err := compositekey.Split(k)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", attrs[0])
	}

	it, err = stub.GetStateByPartialCompositeKey(ctx, "ownership", nil)
	require.NoError(t, err)
	assert.Len(t, drainKeys(t, it), 3)

	_, err = stub.GetStateByPartialCompositeKey(ctx, "", nil)
	assert.Error(t, err)
}

func TestStub_GetQueryResult(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "trading", "tx1")

	require.NoError(t, stub.PutState(ctx, "t1", []byte(`{"id":"t1","owner":"alice@example.com"}`)))
	require.NoError(t, stub.PutState(ctx, "t2", []byte(`{"id":"t2","owner":"alice@example.com","returnedAt":"2024-01-01T00:00:00Z"}`)))
	require.NoError(t, stub.PutState(ctx, "t3", []byte(`{"id":"t3","owner":"bob@example.com"}`)))
	require.NoError(t, stub.PutState(ctx, "t4", []byte(`not json`)))

	assert.False(t, stub.UsedRichQuery())

	doc := queryir.Build([]queryir.Filter{
		queryir.Match("owner", "alice@example.com"),
		queryir.Presence("returnedAt", "false"),
	}, "", "")
	it, err := stub.GetQueryResult(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, drainKeys(t, it))
	assert.True(t, stub.UsedRichQuery())

	it, err = stub.GetQueryResult(ctx, queryir.Build(nil, "2", "1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t3"}, drainKeys(t, it))

	it, err = stub.GetQueryResult(ctx, queryir.Document{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, drainKeys(t, it), "undecodable rows are left to the caller")
}

func TestStub_HistoryIncludesPendingWrites(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	require.NoError(t, stub.PutState(ctx, "k", []byte("v")))
	history, err := stub.GetHistoryForKey(ctx, "k")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "tx1", history[0].TxID)
}

type recordingInvoker struct {
	namespace string
	contract  string
	args      []string
}

func (r *recordingInvoker) InvokeIn(ctx context.Context, stub *Stub, contract string, args []string) ir.Response {
	r.namespace = stub.Namespace()
	r.contract = contract
	r.args = args
	return ir.Success([]byte("ok"))
}

func TestStub_InvokeContract(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)

	inv := &recordingInvoker{}
	stub, err := l.Begin(ctx, TxOptions{Namespace: "room", TxID: "tx1", Timestamp: testTime, Invoker: inv})
	require.NoError(t, err)
	defer stub.Rollback()

	resp := stub.InvokeContract(ctx, "user", []string{"getUser", "bob@example.com"})
	assert.True(t, resp.OK())
	assert.Equal(t, "user", inv.namespace)
	assert.Equal(t, "user", inv.contract)
	assert.Equal(t, []string{"getUser", "bob@example.com"}, inv.args)
}

func TestStub_InvokeContractWithoutInvoker(t *testing.T) {
	l := createTestLedger(t)
	stub := beginTest(t, l, "room", "tx1")
	resp := stub.InvokeContract(context.Background(), "user", []string{"getUser"})
	assert.Equal(t, ir.StatusInternal, resp.Status)
}

func TestIterator_NextAfterEnd(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	stub := beginTest(t, l, "user", "tx1")

	it, err := stub.GetStateByRange(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, it.HasNext())
	_, err = it.Next()
	assert.ErrorIs(t, err, ErrIteratorExhausted)
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())
}
