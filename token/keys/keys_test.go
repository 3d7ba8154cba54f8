package keys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/stretchr/testify/require"
)

func TestPEMRoundTrip(t *testing.T) {
	for _, alg := range []string{keys.RS256, keys.ES256} {
		t.Run(alg, func(t *testing.T) {
			kp, err := keys.GenerateKeyPair("kid-1", alg)
			require.NoError(t, err)

			privatePEM, err := kp.ExportPrivateKeyPEM()
			require.NoError(t, err)
			publicPEM, err := kp.ExportPublicKeyPEM()
			require.NoError(t, err)

			loaded, err := keys.LoadKeyPairFromPEM("kid-1", privatePEM)
			require.NoError(t, err)
			require.Equal(t, alg, loaded.Algorithm)
			require.Equal(t, alg, loaded.Signing().Algorithm())

			public, err := keys.LoadPublicKeyFromPEM("kid-1", publicPEM)
			require.NoError(t, err)
			require.Equal(t, alg, public.Algorithm())
			require.Equal(t, kp.Verification().VerifyKey(), public.VerifyKey())
		})
	}
}

func TestSigningAndVerificationHalvesDiffer(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("kid-1", 2048)
	require.NoError(t, err)

	require.NotEqual(t, kp.Signing().SignKey(), kp.Verification().VerifyKey())
	require.Equal(t, "kid-1", kp.Verification().KeyID())
}

func TestJWKS(t *testing.T) {
	rsaPair, err := keys.GenerateRSAKeyPair("rsa", 2048)
	require.NoError(t, err)
	ecPair, err := keys.GenerateECDSAKeyPair("ec")
	require.NoError(t, err)

	set, err := rsaPair.JWKS()
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	require.Equal(t, "RSA", set.Keys[0].Kty)
	require.Equal(t, "rsa", set.Keys[0].Kid)
	require.Equal(t, "AQAB", set.Keys[0].E)

	set, err = ecPair.JWKS()
	require.NoError(t, err)
	require.Equal(t, "EC", set.Keys[0].Kty)
	require.Equal(t, "P-256", set.Keys[0].Crv)
	require.NotEmpty(t, set.Keys[0].X)
}

func TestLoadOrGenerateKeyPair(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "keys", "private.pem")
	publicPath := filepath.Join(dir, "keys", "public.pem")

	generated, created, err := keys.LoadOrGenerateKeyPair("kid", keys.RS256, privatePath, publicPath)
	require.NoError(t, err)
	require.True(t, created)

	info, err := os.Stat(privatePath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, created, err := keys.LoadOrGenerateKeyPair("kid", keys.RS256, privatePath, publicPath)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, generated.Verification().VerifyKey(), loaded.Verification().VerifyKey())

	public, err := keys.LoadPublicKeyFile("kid", publicPath)
	require.NoError(t, err)
	require.Equal(t, generated.Verification().VerifyKey(), public.VerifyKey())

	_, _, err = keys.LoadOrGenerateKeyPair("kid", keys.ES256, privatePath, publicPath)
	require.Error(t, err)
}

func TestKeyValidation(t *testing.T) {
	_, err := keys.NewHMACSecret("")
	require.Error(t, err)

	_, err = keys.SigningMethod("none")
	require.Error(t, err)

	_, err = keys.GenerateKeyPair("kid", keys.HS256)
	require.Error(t, err)

	_, err = keys.LoadKeyPairFromPEM("kid", "not pem")
	require.Error(t, err)
}
