package keyfile

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/pkg/xattr"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
	"github.com/FoxDenHome/tapecrypt/util"
)

const (
	XATTR_DESCRIPTION = "user.tapecrypt.description"

	KEY_LEN = page.SDE_KEY_LEN

	ageHeader = "age-encryption.org/v1"
)

var ErrIdentityRequired = errors.New("key file is age-encrypted, but no identity was given")

type KeyFile struct {
	Key         []byte
	Description string
}

// Generate returns a new random key of KEY_LEN bytes.
func Generate() ([]byte, error) {
	key := make([]byte, KEY_LEN)
	_, err := rand.Read(key)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func LoadIdentities(path string) ([]age.Identity, error) {
	reader, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	return age.ParseIdentities(reader)
}

func ParseRecipients(recipients ...string) ([]age.Recipient, error) {
	parsed := make([]age.Recipient, 0, len(recipients))
	for _, recipientStr := range recipients {
		recipient, err := age.ParseX25519Recipient(recipientStr)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, recipient)
	}
	return parsed, nil
}

func decrypt(data []byte, identities []age.Identity) ([]byte, error) {
	var src io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(data, []byte(armor.Header)) {
		src = armor.NewReader(src)
	} else if !bytes.HasPrefix(data, []byte(ageHeader)) {
		return data, nil
	}

	if len(identities) == 0 {
		return nil, ErrIdentityRequired
	}

	reader, err := age.Decrypt(src, identities...)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// Load reads a hex key file, decrypting it first when it is age-encrypted.
// The description comes from the XATTR_DESCRIPTION extended attribute.
func Load(path string, identities ...age.Identity) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	plain, err := decrypt(data, identities)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key file %s: %w", path, err)
	}

	key, err := util.ParseHexKey(strings.Trim(string(plain), "\r\t\n "))
	clear(plain)
	if err != nil {
		return nil, fmt.Errorf("invalid key in %s: %w", path, err)
	}
	if len(key) != KEY_LEN {
		return nil, fmt.Errorf("invalid key in %s: expected %d bytes, got %d", path, KEY_LEN, len(key))
	}

	return &KeyFile{
		Key:         key,
		Description: loadDescription(path),
	}, nil
}

func loadDescription(path string) string {
	desc, err := xattr.Get(path, XATTR_DESCRIPTION)
	if err != nil {
		if !errors.Is(err, xattr.ENOATTR) {
			log.Printf("Failed to get "+XATTR_DESCRIPTION+" xattr: %v", err)
		}
		return ""
	}
	return string(desc)
}

// Save writes the key as hex, age-encrypted and armored when recipients are
// given. Existing files are never overwritten; a partially written file is
// removed again.
func Save(path string, kf *KeyFile, recipients ...age.Recipient) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	err = write(file, kf, recipients)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	if kf.Description != "" {
		err = xattr.Set(path, XATTR_DESCRIPTION, []byte(kf.Description))
		if err != nil {
			log.Printf("Failed to set "+XATTR_DESCRIPTION+" xattr: %v", err)
		}
	}

	return nil
}

func write(file *os.File, kf *KeyFile, recipients []age.Recipient) error {
	buffered := bufio.NewWriter(file)
	if len(recipients) == 0 {
		_, err := fmt.Fprintln(buffered, hex.EncodeToString(kf.Key))
		if err != nil {
			return err
		}
		return flushAndSync(buffered, file)
	}

	armored := armor.NewWriter(buffered)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(writer, hex.EncodeToString(kf.Key))
	if err != nil {
		return err
	}
	if err = writer.Close(); err != nil {
		return err
	}
	if err = armored.Close(); err != nil {
		return err
	}
	return flushAndSync(buffered, file)
}

func flushAndSync(buffered *bufio.Writer, file *os.File) error {
	if err := buffered.Flush(); err != nil {
		return err
	}
	return file.Sync()
}
