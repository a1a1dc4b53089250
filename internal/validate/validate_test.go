package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hostileInputs = []string{
	"",
	"dog",
	`<script>window.alert("unsafe")</script>`,
	"SELECT * from users;",
	"I\r\nhave\r\na\r\npen.",
	strings.Repeat("x", 100),
	"🍣",
}

func TestPredicatesRejectHostileInputs(t *testing.T) {
	preds := map[string]Predicate{
		"uuid":        IsUUID,
		"fqdn":        IsFQDN,
		"isbn13":      IsISBN13,
		"datetime":    IsDateTime,
		"uint":        IsUnsignedInt,
		"boolean":     IsBoolean,
		"userLocalId": IsUserLocalID,
		"userLocator": IsUserLocator,
		"roomPurpose": IsRoomPurpose,
		"roomRole":    IsRoomRole,
	}
	for name, p := range preds {
		for _, in := range hostileInputs {
			assert.False(t, p(in), "%s accepted %q", name, in)
		}
	}
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("83022881-e0f9-4e37-b762-682791aa518d"))
	assert.False(t, IsUUID("83022881-E0F9-4E37-B762-682791AA518D"))
	assert.False(t, IsUUID("83022881e0f94e37b762682791aa518d"))
}

func TestIsFQDN(t *testing.T) {
	for _, ok := range []string{"www.google.com", "example.com", "localhost", "a.b.example.org", "my-host.io"} {
		assert.True(t, IsFQDN(ok), ok)
	}
	for _, bad := range []string{"javascript", "-bad.com", "bad-.com", "example.c", "example.123", "http://example.com", "exa mple.com", "example..com"} {
		assert.False(t, IsFQDN(bad), bad)
	}
}

func TestIsISBN13(t *testing.T) {
	assert.True(t, IsISBN13("9784274068560"))
	assert.False(t, IsISBN13("007"))
	assert.False(t, IsISBN13("978427406856X"))
	assert.False(t, IsISBN13("97842740685601"))
}

func TestIsDateTime(t *testing.T) {
	for _, ok := range []string{"2017-12-12T06:30:44.427Z", "2017-12-12T06:30:44+09:00", "2017-12-12", "2017-12-12T06:30:44"} {
		assert.True(t, IsDateTime(ok), ok)
	}
	assert.False(t, IsDateTime("2017-13-45"))
	assert.False(t, IsDateTime("yesterday"))
}

func TestIsUnsignedInt(t *testing.T) {
	assert.True(t, IsUnsignedInt("0"))
	assert.True(t, IsUnsignedInt("1234567890123456"))
	assert.False(t, IsUnsignedInt("12345678901234567"))
	assert.False(t, IsUnsignedInt("-1"))
	assert.False(t, IsUnsignedInt("1.5"))
}

func TestIsBoolean(t *testing.T) {
	assert.True(t, IsBoolean("true"))
	assert.True(t, IsBoolean("false"))
	assert.False(t, IsBoolean("TRUE"))
	assert.False(t, IsBoolean("1"))
}

func TestUserPredicates(t *testing.T) {
	assert.True(t, IsUserLocalID("alice"))
	assert.True(t, IsUserLocalID("bob_smith"))
	assert.False(t, IsUserLocalID("bob"))
	assert.False(t, IsUserLocalID("ほげもげ"))
	assert.False(t, IsUserLocalID("alice1"))

	assert.True(t, IsUserDisplayName("Bob Smith"))
	assert.True(t, IsUserDisplayName("🍣"))
	assert.True(t, IsUserDisplayName(strings.Repeat("あ", 50)))
	assert.False(t, IsUserDisplayName(""))
	assert.False(t, IsUserDisplayName(strings.Repeat("x", 51)))
	assert.False(t, IsUserDisplayName("two\nlines"))

	assert.True(t, IsUserLocator("alice@example.com"))
	assert.True(t, IsUserLocator("alice@localhost"))
	assert.False(t, IsUserLocator("alice"))
	assert.False(t, IsUserLocator("alice@bob@example.com"))
	assert.False(t, IsUserLocator("al@example.com"))
}

func TestRoomPredicates(t *testing.T) {
	assert.True(t, IsRoomPurpose("rental"))
	assert.True(t, IsRoomPurpose("return"))
	assert.False(t, IsRoomPurpose("Rental"))
	assert.True(t, IsRoomRole("inviter"))
	assert.True(t, IsRoomRole("guest"))
	assert.False(t, IsRoomRole("host"))
}

func TestOptional(t *testing.T) {
	p := Optional(IsISBN13)
	assert.True(t, p(""))
	assert.True(t, p("9784274068560"))
	assert.False(t, p("007"))
}

func TestCheck(t *testing.T) {
	schema := Schema{IsUserLocator, IsISBN13}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, Check([]string{"alice@example.com", "9784274068560"}, schema))
	})

	t.Run("arity mismatch wins over bad literals", func(t *testing.T) {
		err := Check([]string{"nope"}, schema)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, -1, verr.Index)
		assert.Equal(t, "Incorrect number of arguments. Expecting 2, Actual 1", err.Error())
	})

	t.Run("lowest failing index reported", func(t *testing.T) {
		err := Check([]string{"nope", "007"}, schema)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 0, verr.Index)
		assert.Equal(t, "Invalid literal argument on index 0", err.Error())
	})

	t.Run("optional slot accepts empty", func(t *testing.T) {
		opt := Schema{Optional(IsUserLocator), Optional(IsISBN13), Optional(IsUnsignedInt)}
		require.NoError(t, Check([]string{"", "", ""}, opt))
		err := Check([]string{"", "", "ten"}, opt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index 2")
	})

	t.Run("empty schema", func(t *testing.T) {
		require.NoError(t, Check(nil, Schema{}))
		require.Error(t, Check([]string{"x"}, Schema{}))
	})
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		p, ok := Lookup(name)
		require.True(t, ok, name)
		require.NotNil(t, p)
	}
	_, ok := Lookup("nope")
	assert.False(t, ok)
	assert.Contains(t, Names(), "userLocator")
}
