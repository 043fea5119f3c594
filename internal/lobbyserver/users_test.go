package lobbyserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdonin/openlobby/internal/model"
)

func testUser(accountID int64) *model.User {
	return model.NewUser(&model.Account{ID: accountID, Login: "tester"})
}

func TestAttachSingleSessionEviction(t *testing.T) {
	um := NewUserManager()

	first, _ := newTestClient(t)
	second, _ := newTestClient(t)

	um.Attach(first, testUser(7))
	require.False(t, first.Closed())
	assert.Same(t, first, um.ClientByAccount(7))

	// Second login on the same account closes the first connection.
	um.Attach(second, testUser(7))

	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.Same(t, second, um.ClientByAccount(7))
	assert.Equal(t, 1, um.Count())
}

func TestAttachSameConnectionIsNotEvicted(t *testing.T) {
	um := NewUserManager()
	c, _ := newTestClient(t)

	um.Attach(c, testUser(7))
	um.Attach(c, testUser(7))

	assert.False(t, c.Closed())
	assert.Same(t, c, um.ClientByAccount(7))
}

func TestDetachClearsAllIndexes(t *testing.T) {
	um := NewUserManager()
	c, _ := newTestClient(t)

	u := testUser(7)
	um.Attach(c, u)
	u.SetCharacter(&model.Character{ID: 42, AccountID: 7, Name: "Hero"})
	um.BindCharacter(c, 42)

	require.True(t, um.CharacterOnline(42))
	require.Same(t, c, um.ClientByCharacter(42))

	um.Detach(c)

	assert.Nil(t, um.ClientByAccount(7))
	assert.Nil(t, um.ClientByCharacter(42))
	assert.False(t, um.CharacterOnline(42))
	assert.Equal(t, 0, um.Count())
}

func TestUnbindCharacterIgnoresOtherOwner(t *testing.T) {
	um := NewUserManager()
	a, _ := newTestClient(t)
	b, _ := newTestClient(t)

	um.BindCharacter(a, 42)

	// A stale unbind from a different connection must not drop the index.
	um.UnbindCharacter(b, 42)
	assert.Same(t, a, um.ClientByCharacter(42))

	um.UnbindCharacter(a, 42)
	assert.Nil(t, um.ClientByCharacter(42))
}

func TestEvictedConnectionStopsReceiving(t *testing.T) {
	um := NewUserManager()
	first, _ := newTestClient(t)
	second, _ := newTestClient(t)

	um.Attach(first, testUser(9))
	um.Attach(second, testUser(9))

	require.Eventually(t, first.Closed, time.Second, 10*time.Millisecond)
	err := first.Send(OpServerMessage, []byte{0})
	assert.Error(t, err)
}
