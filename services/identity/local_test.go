package identitysvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	identitysvc "github.com/aulavirtual/aula/services/identity"
	inmemdb "github.com/aulavirtual/aula/storage/database/inmem"
)

func setup(t *testing.T) *identitysvc.LocalProvider {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return identitysvc.NewLocalProvider(inmemdb.NewAccountRepository(db))
}

func Test_LocalProvider_CreateAccount(t *testing.T) {
	idp := setup(t)
	ctx := context.Background()

	id, err := idp.CreateAccount(ctx, "sam@test.edu", "s3cret-pass")
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = idp.CreateAccount(ctx, "sam@test.edu", "other-pass")
	assert.Equal(t, identitysvc.ErrEmailTaken, err)
}

func Test_LocalProvider_Authenticate(t *testing.T) {
	idp := setup(t)
	ctx := context.Background()

	id, err := idp.CreateAccount(ctx, "sam@test.edu", "s3cret-pass")
	assert.NoError(t, err)

	got, err := idp.Authenticate(ctx, "sam@test.edu", "s3cret-pass")
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = idp.Authenticate(ctx, "sam@test.edu", "wrong")
	assert.Equal(t, identitysvc.ErrInvalidCredentials, err)

	_, err = idp.Authenticate(ctx, "ghost@test.edu", "s3cret-pass")
	assert.Equal(t, identitysvc.ErrInvalidCredentials, err)
}

func Test_LocalProvider_DeleteAccount_idempotent(t *testing.T) {
	idp := setup(t)
	ctx := context.Background()

	id, err := idp.CreateAccount(ctx, "sam@test.edu", "s3cret-pass")
	assert.NoError(t, err)

	assert.NoError(t, idp.DeleteAccount(ctx, id))
	// deleting an already removed account converges, it does not fail
	assert.NoError(t, idp.DeleteAccount(ctx, id))
}

func Test_LocalProvider_EndSession(t *testing.T) {
	idp := setup(t)
	ctx := context.Background()

	assert.False(t, idp.SessionRevoked("tok"))
	assert.NoError(t, idp.EndSession(ctx, "tok"))
	assert.True(t, idp.SessionRevoked("tok"))
}
