package user_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookledger/internal/chaincode/user"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/testutil"
)

func TestCreateUser_ThenGet(t *testing.T) {
	e, l := testutil.NewEngine(t)

	created := testutil.MustInvoke(t, e, "user", "createUser", "bob", "example.com", "Bob Smith")
	assert.JSONEq(t,
		`{"id":"bob","host":"example.com","locator":"bob@example.com","name":"Bob Smith"}`,
		string(created.Payload))

	history, err := l.History(context.Background(), "user", "bob@example.com")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, created.Payload, history[0].Value)

	got := testutil.MustInvoke(t, e, "user", "getUser", "bob@example.com")
	assert.Equal(t, created.Payload, got.Payload)

	again := testutil.Invoke(e, "user", "createUser", "bob", "example.com", "Bob Smith")
	assert.Equal(t, ir.StatusConflict, again.Status)
	assert.Equal(t, "user bob@example.com already exists", again.Message)
}

func TestGetUser_NotFound(t *testing.T) {
	e, _ := testutil.NewEngine(t)
	resp := testutil.Invoke(e, "user", "getUser", "nobody@example.com")
	assert.Equal(t, ir.StatusNotFound, resp.Status)
	assert.Equal(t, "user nobody@example.com not found", resp.Message)
}

func TestCreateUser_Validation(t *testing.T) {
	e, _ := testutil.NewEngine(t)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"short local id", []string{"bo", "example.com", "Bo"}, "Invalid literal argument on index 0"},
		{"bad host", []string{"bob", "example", "Bob"}, "Invalid literal argument on index 1"},
		{"empty name", []string{"bob", "example.com", ""}, "Invalid literal argument on index 2"},
		{"arity", []string{"bob", "example.com"}, "Incorrect number of arguments. Expecting 3, Actual 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Invoke(e, "user", "createUser", tt.args...)
			assert.Equal(t, ir.StatusBadRequest, resp.Status)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestCreateUser_NormalizesName(t *testing.T) {
	e, _ := testutil.NewEngine(t)
	// "e" followed by a combining acute accent.
	resp := testutil.MustInvoke(t, e, "user", "createUser", "rene", "example.com", "Rene\u0301")

	var rec user.Record
	require.NoError(t, json.Unmarshal(resp.Payload, &rec))
	assert.Equal(t, "Ren\u00e9", rec.Name)
}

func TestUpdateUser(t *testing.T) {
	e, _ := testutil.NewEngine(t)
	testutil.MustInvoke(t, e, "user", "createUser", "alice", "example.com", "Alice")

	resp := testutil.MustInvoke(t, e, "user", "updateUser", "alice@example.com", "Alice Liddell")
	var rec user.Record
	require.NoError(t, json.Unmarshal(resp.Payload, &rec))
	assert.Equal(t, user.Record{ID: "alice", Host: "example.com", Locator: "alice@example.com", Name: "Alice Liddell"}, rec)

	missing := testutil.Invoke(e, "user", "updateUser", "carol@example.com", "Carol")
	assert.Equal(t, ir.StatusNotFound, missing.Status)
}

func TestDeleteUser(t *testing.T) {
	e, _ := testutil.NewEngine(t)
	testutil.MustInvoke(t, e, "user", "createUser", "alice", "example.com", "Alice")

	resp := testutil.MustInvoke(t, e, "user", "deleteUser", "alice@example.com")
	assert.Empty(t, resp.Payload)

	assert.Equal(t, ir.StatusNotFound, testutil.Invoke(e, "user", "getUser", "alice@example.com").Status)
	assert.Equal(t, ir.StatusNotFound, testutil.Invoke(e, "user", "deleteUser", "alice@example.com").Status)
}

func TestGetUsersList(t *testing.T) {
	e, _ := testutil.NewEngine(t)
	testutil.MustInvoke(t, e, "user", "createUser", "alice", "example.com", "Alice")
	testutil.MustInvoke(t, e, "user", "createUser", "bob", "example.com", "Bob")
	testutil.MustInvoke(t, e, "user", "createUser", "carol", "other.org", "Carol")

	locators := func(resp ir.Response) []string {
		t.Helper()
		var recs []user.Record
		require.NoError(t, json.Unmarshal(resp.Payload, &recs))
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.Locator
		}
		return out
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"all", []string{"", "", "", "", ""}, []string{"alice@example.com", "bob@example.com", "carol@other.org"}},
		{"by host", []string{"example.com", "", "", "", ""}, []string{"alice@example.com", "bob@example.com"}},
		{"by local id", []string{"", "carol", "", "", ""}, []string{"carol@other.org"}},
		{"by name", []string{"", "", "Bob", "", ""}, []string{"bob@example.com"}},
		{"limit", []string{"", "", "", "2", ""}, []string{"alice@example.com", "bob@example.com"}},
		{"offset", []string{"", "", "", "", "1"}, []string{"bob@example.com", "carol@other.org"}},
		{"no match", []string{"nowhere.net", "", "", "", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.MustInvoke(t, e, "user", "getUsersList", tt.args...)
			assert.Equal(t, tt.want, locators(resp))
		})
	}
}

func TestLocator(t *testing.T) {
	assert.Equal(t, "bob@example.com", user.Locator("bob", "example.com"))
}
