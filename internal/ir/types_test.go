package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNaming(t *testing.T) {
	sig := FunctionSig{Name: "getUser", ReadOnly: true, Args: []ArgSig{{Name: "locator", Check: "userLocator"}}}
	data, err := json.Marshal(sig)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"read_only"`)
	assert.NotContains(t, string(data), `"readOnly"`)
	assert.NotContains(t, string(data), `"optional"`)
}

func TestResponseConstructors(t *testing.T) {
	ok := Success([]byte(`{"id":"bob"}`))
	assert.True(t, ok.OK())
	assert.Empty(t, ok.Message)

	fail := Failure(StatusNotFound, "user bob@example.com not found")
	assert.False(t, fail.OK())
	assert.Equal(t, 404, fail.Status)
	assert.Nil(t, fail.Payload)
}

func TestPayloadJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"object", []byte(`{"id":"bob"}`), `{"id":"bob"}`},
		{"array", []byte(`[]`), `[]`},
		{"plain text", []byte("hello"), `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Success(tt.payload).PayloadJSON()
			assert.Equal(t, tt.want, string(got))
		})
	}

	assert.Nil(t, Response{Status: StatusOK}.PayloadJSON())
}

func TestContractSpecFunction(t *testing.T) {
	spec := ContractSpec{
		Name:      "user",
		Functions: []FunctionSig{{Name: "getUser"}, {Name: "createUser"}},
	}
	fn, ok := spec.Function("createUser")
	require.True(t, ok)
	assert.Equal(t, "createUser", fn.Name)

	_, ok = spec.Function("missing")
	assert.False(t, ok)
}
