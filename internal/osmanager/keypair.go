package osmanager

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

const keyFileMode = 0o600

// LocalKeypair is the node's own SSH client identity, generated on first
// use and reused across TrustBundleGet calls.
type LocalKeypair struct {
	path string
}

// NewLocalKeypair points at the PEM file storing this node's client key,
// under the OS-manager work directory.
func NewLocalKeypair(workDir string) *LocalKeypair {
	return &LocalKeypair{path: filepath.Join(workDir, "client_identity.pem")}
}

// Sign loads (or generates, on first use) the client private key and
// returns an ssh.Signer wrapping it, satisfying sshexec.Signer.
func (k *LocalKeypair) Sign() (ssh.Signer, error) {
	key, err := k.loadOrGenerate()
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(key)
}

// PublicKeyAuthorizedKeysLine renders this node's public key in
// authorized_keys format, for mirroring into a peer's authorized_keys on
// TrustPeer.
func (k *LocalKeypair) PublicKeyAuthorizedKeysLine() (string, error) {
	key, err := k.loadOrGenerate()
	if err != nil {
		return "", err
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return "", err
	}
	return string(ssh.MarshalAuthorizedKey(signer.PublicKey())), nil
}

// Fingerprint returns this node's own SHA256 host-key-style fingerprint,
// for publishing in a PeerTrustBundle via TrustBundleGet.
func (k *LocalKeypair) Fingerprint() (string, error) {
	key, err := k.loadOrGenerate()
	if err != nil {
		return "", err
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(signer.PublicKey().Marshal())
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:]), nil
}

func (k *LocalKeypair) loadOrGenerate() (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(k.path)
	if err == nil {
		return parsePEMKey(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read client identity: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate client identity: %w", err)
	}
	if err := k.persist(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *LocalKeypair) persist(key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal client identity: %w", err)
	}
	block := &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	return os.WriteFile(k.path, pem.EncodeToMemory(block), keyFileMode)
}

func parsePEMKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("decode client identity: no PEM block found")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse client identity: %w", err)
	}
	return key, nil
}
