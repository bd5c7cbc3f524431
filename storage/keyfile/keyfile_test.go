package keyfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/pkg/xattr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHexKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPlain(t *testing.T) {
	path := writeFile(t, "plain.key", testHexKey+"\r\n")

	kf, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, kf.Key, KEY_LEN)
	assert.Equal(t, byte(0x11), kf.Key[1])
	assert.Equal(t, "", kf.Description)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "bad.key", "0x"+testHexKey))
	assert.ErrorContains(t, err, "invalid key")

	_, err = Load(writeFile(t, "short.key", testHexKey[:62]))
	assert.ErrorContains(t, err, "expected 32 bytes, got 31")

	_, err = Load(filepath.Join(t.TempDir(), "missing.key"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoadEncrypted(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	key, err := Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "enc.key")
	require.NoError(t, Save(path, &KeyFile{Key: key}, identity.Recipient()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "-----BEGIN AGE ENCRYPTED FILE-----"))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrIdentityRequired)

	other, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	_, err = Load(path, other)
	assert.Error(t, err)

	kf, err := Load(path, identity)
	require.NoError(t, err)
	assert.Equal(t, key, kf.Key)
}

func TestSavePlainRefusesOverwrite(t *testing.T) {
	path := writeFile(t, "existing.key", testHexKey)

	err := Save(path, &KeyFile{Key: make([]byte, KEY_LEN)})
	assert.ErrorIs(t, err, os.ErrExist)

	kf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), kf.Key[15])
}

func TestSaveDescription(t *testing.T) {
	dir := t.TempDir()
	probe := filepath.Join(dir, "probe")
	require.NoError(t, os.WriteFile(probe, nil, 0o600))
	if err := xattr.Set(probe, XATTR_DESCRIPTION, []byte("x")); err != nil {
		t.Skipf("user xattrs not supported in %s: %v", dir, err)
	}

	key, err := Generate()
	require.NoError(t, err)

	path := filepath.Join(dir, "desc.key")
	require.NoError(t, Save(path, &KeyFile{Key: key, Description: "Hello world!"}))

	kf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, key, kf.Key)
	assert.Equal(t, "Hello world!", kf.Description)
}

func TestLoadIdentities(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	path := writeFile(t, "identity.txt", "# created for tests\n"+identity.String()+"\n")
	identities, err := LoadIdentities(path)
	require.NoError(t, err)
	assert.Len(t, identities, 1)

	recipients, err := ParseRecipients(identity.Recipient().String())
	require.NoError(t, err)
	assert.Len(t, recipients, 1)

	_, err = ParseRecipients("not-a-recipient")
	assert.Error(t, err)
}
