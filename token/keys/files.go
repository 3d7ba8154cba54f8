package keys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrGenerateKeyPair reads the private key at privatePath. When the file does
// not exist a new pair is generated and both PEM files are written, so the
// portal can pick up the public key from the shared data folder.
func LoadOrGenerateKeyPair(keyID, alg, privatePath, publicPath string) (*KeyPair, bool, error) {
	data, err := os.ReadFile(privatePath)
	if err == nil {
		kp, err := LoadKeyPairFromPEM(keyID, string(data))
		if err != nil {
			return nil, false, fmt.Errorf("failed to load %s: %w", privatePath, err)
		}
		if kp.Algorithm != alg {
			return nil, false, fmt.Errorf("key in %s is %s, configured algorithm is %s", privatePath, kp.Algorithm, alg)
		}
		return kp, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read %s: %w", privatePath, err)
	}

	kp, err := GenerateKeyPair(keyID, alg)
	if err != nil {
		return nil, false, err
	}
	if err := WriteKeyPair(kp, privatePath, publicPath); err != nil {
		return nil, false, err
	}
	return kp, true, nil
}

// WriteKeyPair stores the pair as PEM files, the private key readable by the owner only.
func WriteKeyPair(kp *KeyPair, privatePath, publicPath string) error {
	privatePEM, err := kp.ExportPrivateKeyPEM()
	if err != nil {
		return fmt.Errorf("failed to export private key: %w", err)
	}
	publicPEM, err := kp.ExportPublicKeyPEM()
	if err != nil {
		return fmt.Errorf("failed to export public key: %w", err)
	}

	for _, path := range []string{privatePath, publicPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create key folder: %w", err)
		}
	}
	if err := os.WriteFile(privatePath, []byte(privatePEM), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", privatePath, err)
	}
	if err := os.WriteFile(publicPath, []byte(publicPEM), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", publicPath, err)
	}
	return nil
}

// LoadPublicKeyFile reads a PEM public key from disk.
func LoadPublicKeyFile(keyID, path string) (PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PublicKey{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadPublicKeyFromPEM(keyID, string(data))
}
