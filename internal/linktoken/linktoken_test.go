package linktoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	signer := NewSigner("0123456789abcdef0123456789abcdef")

	token, digest, err := signer.Issue(KindQuote, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, Digest(token), digest)
	assert.Len(t, digest, 64)

	id, err := signer.Verify(KindQuote, token)
	require.NoError(t, err)
	assert.Equal(t, "quote-1", id)
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	signer := NewSigner("secret")

	first, _, err := signer.Issue(KindInvoice, "invoice-1")
	require.NoError(t, err)
	second, _, err := signer.Issue(KindInvoice, "invoice-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsWrongKindSecretAndTampering(t *testing.T) {
	signer := NewSigner("secret-a")
	token, _, err := signer.Issue(KindQuote, "quote-1")
	require.NoError(t, err)

	_, err = signer.Verify(KindInvoice, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSigner("secret-b").Verify(KindQuote, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, _, err := signer.Issue(KindQuote, "quote-2")
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")
	_, err = signer.Verify(KindQuote, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Verify(KindQuote, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
