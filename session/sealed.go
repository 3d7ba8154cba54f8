package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MinPasswordLength is the shortest password NewSealedCookieStore accepts.
const MinPasswordLength = 32

// cookieSkew is how much earlier the cookie expires than the sealed session.
const cookieSkew = 60 * time.Second

var _ Store = (*SealedCookieStore)(nil)

// SealedCookieStore keeps the pair in the cookie itself, encrypted and
// authenticated with XChaCha20-Poly1305. A cookie that fails to open or has
// passed its sealed expiry loads as no session.
type SealedCookieStore struct {
	aead   cipher.AEAD
	ttl    time.Duration
	cookie cookieOptions
}

type sealedSession struct {
	Pair      token.Pair `json:"pair"`
	ExpiresAt int64      `json:"exp"`
}

func NewSealedCookieStore(password string, ttl time.Duration, options ...Option) (*SealedCookieStore, error) {
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("[NewSealedCookieStore] password must be at least %d characters", MinPasswordLength)
	}
	if ttl <= cookieSkew {
		return nil, fmt.Errorf("[NewSealedCookieStore] ttl must be longer than %s", cookieSkew)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(password), nil, []byte(CookieName)), key); err != nil {
		return nil, fmt.Errorf("failed to derive cookie key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	s := &SealedCookieStore{aead: aead, ttl: ttl, cookie: defaultCookieOptions()}
	for _, opt := range options {
		opt(&s.cookie)
	}
	return s, nil
}

func (s *SealedCookieStore) Load(r *http.Request) (*token.Pair, error) {
	value := s.cookie.value(r)
	if value == "" {
		return nil, nil
	}

	sess, err := s.open(value)
	if err != nil || sess.ExpiresAt <= s.cookie.nowFunc().Unix() {
		return nil, nil
	}
	return &sess.Pair, nil
}

func (s *SealedCookieStore) Save(w http.ResponseWriter, _ *http.Request, pair token.Pair) error {
	value, err := s.seal(sealedSession{
		Pair:      pair,
		ExpiresAt: s.cookie.nowFunc().Add(s.ttl).Unix(),
	})
	if err != nil {
		return err
	}
	s.cookie.set(w, value, s.ttl-cookieSkew)
	return nil
}

// Renew is Save: a sealed cookie carries no id to carry over.
func (s *SealedCookieStore) Renew(w http.ResponseWriter, r *http.Request, pair token.Pair) error {
	return s.Save(w, r, pair)
}

func (s *SealedCookieStore) Destroy(w http.ResponseWriter, _ *http.Request) error {
	s.cookie.expire(w)
	return nil
}

func (s *SealedCookieStore) seal(sess sealedSession) (string, error) {
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(s.cookie.name))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *SealedCookieStore) open(value string) (sealedSession, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return sealedSession{}, err
	}
	if len(data) < s.aead.NonceSize() {
		return sealedSession{}, errors.New("sealed session too short")
	}

	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(s.cookie.name))
	if err != nil {
		return sealedSession{}, err
	}

	var sess sealedSession
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return sealedSession{}, err
	}
	return sess, nil
}
