package qrx

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncodePNG(t *testing.T) {
	t.Parallel()

	png, err := EncodePNG("otpauth://totp/FileFortress:a@b.com?secret=ABC", 0)
	require.NoError(t, err)
	require.Greater(t, len(png), 4)
	require.Equal(t, pngMagic, png[:4])
}

func TestEncodePNGRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := EncodePNG("", DefaultSize)
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestEncodeBase64PNG(t *testing.T) {
	t.Parallel()

	s, err := EncodeBase64PNG("hello", 128)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	require.Equal(t, pngMagic, raw[:4])
}
