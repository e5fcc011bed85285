package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, err := Issue("secret", 42, "client", 1)
	require.NoError(t, err)

	claims, err := ParseAuth("Bearer "+token, "secret")
	require.NoError(t, err)
	require.EqualValues(t, 42.0, claims["sub"])
	require.Equal(t, "client", claims["role"])

	// bare token without the scheme also parses
	claims, err = ParseAuth(token, "secret")
	require.NoError(t, err)
	require.EqualValues(t, 42.0, claims["sub"])
}

func TestParseAuth_Rejections(t *testing.T) {
	token, err := Issue("secret", 42, "client", 1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+token, "other-secret")
	require.Error(t, err)

	_, err = ParseAuth("", "secret")
	require.Error(t, err)

	_, err = ParseAuth("Bearer ", "secret")
	require.Error(t, err)

	_, err = ParseAuth("Bearer not.a.token", "secret")
	require.Error(t, err)
}

func TestParseAuth_Expired(t *testing.T) {
	token, err := Issue("secret", 42, "client", -1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+token, "secret")
	require.Error(t, err)
}
