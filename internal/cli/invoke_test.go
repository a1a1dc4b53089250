package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_CommitsAcrossRuns(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "invoke", "user", "createUser", "bob", "example.com", "Bob")
	require.NoError(t, err)
	assert.Contains(t, out, `"locator":"bob@example.com"`)

	// A second process sees the committed record.
	out, err = execute(t, db, "invoke", "user", "getUser", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"Bob"`)
}

func TestInvoke_FailureEnvelope(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "invoke", "user", "getUser", "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_STATUS_404]: user ghost@example.com not found")

	out, err = execute(t, db, "invoke", "user", "createUser", "bob")
	require.Error(t, err)
	assert.Contains(t, out, "E_STATUS_400")
	assert.Contains(t, out, "Incorrect number of arguments. Expecting 3, Actual 1")

	out, err = execute(t, db, "invoke", "library", "getBook")
	require.Error(t, err)
	assert.Contains(t, out, "Received invocation for unknown contract library.")
}

func TestInvoke_JSON(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "invoke", "user", "createUser", "ann", "example.org", "Ann")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ann@example.org", resp.Data["locator"])
}

func TestInvoke_NewID(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "invoke", "room", "createRoom", "--new-id", "rental", "alice@example.com", "example.com")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	_, perr := uuid.Parse(resp.Data.ID)
	require.NoError(t, perr, "generated id %q", resp.Data.ID)

	out, err = execute(t, db, "invoke", "room", "getRoom", resp.Data.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"purpose":"rental"`), out)
}

func TestInvoke_MissingArgs(t *testing.T) {
	_, err := execute(t, tempDB(t), "invoke", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}
