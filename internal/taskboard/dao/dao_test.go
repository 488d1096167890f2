package dao

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestHashPasswordFormat(t *testing.T) {
	hashed := HashPassword("secret")

	parts := strings.Split(hashed, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2_sha256", parts[0])
	assert.Equal(t, "260000", parts[1])

	// Хэш должен воспроизводиться из соли
	expected := base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte("secret"), []byte(parts[2]), 260000, 32, sha256.New))
	assert.Equal(t, expected, parts[3])
}

func TestHashPasswordSalted(t *testing.T) {
	assert.NotEqual(t, HashPassword("secret"), HashPassword("secret"))
}

func TestGenID(t *testing.T) {
	id := GenID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenID())
}
