package did

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(id string) *Document {
	doc := NewDocument(id)
	keyID := id + "#key1"
	doc.AddVerificationMethod(VerificationMethod{
		ID:              keyID,
		Type:            "Ed25519VerificationKey2020",
		Controller:      id,
		PublicKeyBase58: "H3C2AVvLMv6gmMNam3uVAjZpfkcJCwDwnZn6z3wXmqPV",
	})
	doc.AddAuthentication(keyID)
	return doc
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := testDocument("did:example:123")

	require.NoError(t, store.Put(ctx, "did:example:123", doc))

	got, err := store.Get(ctx, "did:example:123")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "did:example:nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMismatchedID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := testDocument("did:example:456")

	err := store.Put(ctx, "did:example:123", doc)
	assert.ErrorIs(t, err, ErrMismatchedID)

	err = store.Update(ctx, "did:example:123", doc)
	assert.ErrorIs(t, err, ErrMismatchedID)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := "did:example:123"

	require.NoError(t, store.Put(ctx, id, testDocument(id)))

	updated := testDocument(id)
	updated.AddService(Service{
		ID:              id + "#vcs",
		Type:            "VerifiableCredentialService",
		ServiceEndpoint: "https://example.com/vc/",
	})
	require.NoError(t, store.Update(ctx, id, updated))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Service, 1)
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	store := NewMemoryStore()
	id := "did:example:123"
	err := store.Update(context.Background(), id, testDocument(id))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := "did:example:123"

	require.NoError(t, store.Put(ctx, id, testDocument(id)))
	require.NoError(t, store.Delete(ctx, id))

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, id))
}

func TestDocumentJSON(t *testing.T) {
	doc := testDocument("did:example:123")
	doc.AddService(Service{
		ID:              "did:example:123#vcs",
		Type:            "VerifiableCredentialService",
		ServiceEndpoint: "https://example.com/vc/",
	})

	out, err := doc.JSON()
	require.NoError(t, err)

	assert.Contains(t, out, `"@context"`)
	assert.Contains(t, out, ContextV1)
	assert.Contains(t, out, `"verificationMethod"`)
	assert.Contains(t, out, `"serviceEndpoint"`)
	assert.NotContains(t, out, "publicKeyHex")
}

func TestGenerateDocument(t *testing.T) {
	doc := GenerateDocument()

	_, err := Parse(doc.ID)
	require.NoError(t, err)

	require.Len(t, doc.VerificationMethod, 1)
	assert.Equal(t, doc.ID+"#key1", doc.VerificationMethod[0].ID)
	assert.Equal(t, doc.ID, doc.VerificationMethod[0].Controller)
	assert.Equal(t, []string{doc.ID + "#key1"}, doc.Authentication)
}
