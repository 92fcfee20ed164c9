// Package keyring stores named ed25519 keypairs as Solana keygen JSON files
// (a JSON array of the 64 private key bytes), one file per name.
package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrKeyNotFound is returned when no keypair file exists for a name.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists is returned when generating over an existing name.
	ErrKeyExists = errors.New("key already exists")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

const fileExt = ".json"

// Entry is one named public key.
type Entry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Keyring is a directory of keygen files.
type Keyring struct {
	dir string
}

// Open returns the keyring rooted at dir, creating the directory if needed.
func Open(dir string) (*Keyring, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Keyring{dir: dir}, nil
}

// Dir returns the keyring directory.
func (k *Keyring) Dir() string {
	return k.dir
}

func (k *Keyring) path(name string) string {
	return filepath.Join(k.dir, name+fileExt)
}

// Generate creates and stores a new random keypair under name.
func (k *Keyring) Generate(name string) (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", name, err)
	}
	if err := k.Put(name, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Put stores key under name. It never overwrites an existing file.
func (k *Keyring) Put(name string, key solana.PrivateKey) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("put %q: invalid key name", name)
	}

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	f, err := os.OpenFile(k.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("put %s: %w", name, ErrKeyExists)
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("put %s: %w", name, err)
	}
	return f.Close()
}

// Get loads the keypair stored under name.
func (k *Keyring) Get(name string) (solana.PrivateKey, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("get %q: %w", name, ErrKeyNotFound)
	}
	path := k.path(name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", name, ErrKeyNotFound)
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return key, nil
}

// Resolve turns a key name or a base58 address into an address. Names take
// precedence.
func (k *Keyring) Resolve(nameOrAddress string) (solana.PublicKey, error) {
	key, err := k.Get(nameOrAddress)
	if err == nil {
		return key.PublicKey(), nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return solana.PublicKey{}, err
	}
	addr, perr := solana.PublicKeyFromBase58(nameOrAddress)
	if perr != nil {
		return solana.PublicKey{}, fmt.Errorf("resolve %q: not a key name or base58 address", nameOrAddress)
	}
	return addr, nil
}

// List returns every stored key, sorted by name.
func (k *Keyring) List() ([]Entry, error) {
	files, err := os.ReadDir(k.dir)
	if err != nil {
		return nil, fmt.Errorf("list keyring: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(f.Name(), fileExt)
		key, err := k.Get(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, Address: key.PublicKey().String()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
