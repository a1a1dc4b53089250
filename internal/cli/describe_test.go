package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookledger/internal/ir"
)

func TestDescribe_Text(t *testing.T) {
	out, err := execute(t, tempDB(t), "describe", "room")
	require.NoError(t, err)
	assert.Contains(t, out, "room: Meeting rooms")
	assert.Contains(t, out, "  getRoom(id uuid) (read-only)")
	assert.Contains(t, out, "  closeRoom(id uuid, closedAt datetime)")
	assert.NotContains(t, out, "trading")
}

func TestDescribe_JSON(t *testing.T) {
	out, err := execute(t, tempDB(t), "--format", "json", "describe")
	require.NoError(t, err)

	var resp struct {
		Data []ir.ContractSpec `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	names := make([]string, len(resp.Data))
	for i, s := range resp.Data {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"ownership", "room", "trading", "user"}, names)
}

func TestDescribe_UnknownContract(t *testing.T) {
	_, err := execute(t, tempDB(t), "describe", "library")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDescribe_CUE(t *testing.T) {
	out, err := execute(t, tempDB(t), "describe", "--cue")
	require.NoError(t, err)
	assert.Contains(t, out, "contract: user: {")
}

func TestValidate_Embedded(t *testing.T) {
	out, err := execute(t, tempDB(t), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ contracts.cue valid (4 contracts)")
}

func TestValidate_UndeclaredHandler(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "partial.cue")
	src := `contract: room: {
	purpose: "rooms"
	function: getRoom: {
		readonly: true
		args: [{name: "id", check: "uuid"}]
	}
}
`
	require.NoError(t, os.WriteFile(manifest, []byte(src), 0o644))

	out, err := execute(t, tempDB(t), "--format", "json", "validate", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Contains(t, resp.Data.Errors[0], "handlers without declaration: closeRoom, createRoom, guestJoinedRoom")
}

func TestValidate_UnknownCheck(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "bad.cue")
	src := `contract: user: {
	purpose: "users"
	function: getUser: args: [{name: "locator", check: "email"}]
}
`
	require.NoError(t, os.WriteFile(manifest, []byte(src), 0o644))

	out, err := execute(t, tempDB(t), "validate", manifest)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+manifest+" invalid")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, tempDB(t), "validate", "/nonexistent/contracts.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
