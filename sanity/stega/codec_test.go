package stega

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineKeepsVisibleText(t *testing.T) {
	out, err := Combine("Hello", Payload{Origin: Origin, Href: "/studio/intent/edit/id=a;type=post;path=title"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Hello"))
	assert.Greater(t, len(out), len("Hello"))
	assert.Equal(t, "Hello", Clean(out))
	for _, r := range out[len("Hello"):] {
		assert.True(t, isZeroWidth(r), "unexpected visible rune %q", r)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	want := Payload{Origin: Origin, Href: "/studio/app-router/intent/edit/id=p1;type=post;path=title"}
	out, err := Combine("Hello", want)
	require.NoError(t, err)

	got, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeNonASCIIPayload(t *testing.T) {
	want := Payload{Origin: Origin, Href: "/studio/intent/edit/id=ø;type=post;path=tïtle"}
	out, err := Combine("Grüße", want)
	require.NoError(t, err)

	cleaned, encoded := Split(out)
	assert.Equal(t, "Grüße", cleaned)
	assert.NotEmpty(t, encoded)

	got, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSplitPlainString(t *testing.T) {
	cleaned, encoded := Split("plain text")
	assert.Equal(t, "plain text", cleaned)
	assert.Empty(t, encoded)
	assert.False(t, IsEncoded("plain text"))
}

func TestDecodeNotEncoded(t *testing.T) {
	_, err := Decode("nothing here")
	assert.ErrorIs(t, err, ErrNotEncoded)
}

func TestDecodeTruncated(t *testing.T) {
	out, err := Combine("x", Payload{Origin: Origin})
	require.NoError(t, err)
	// Drop the final digit.
	runes := []rune(out)
	_, err = Decode(string(runes[:len(runes)-1]))
	assert.Error(t, err)
}

func TestSplitVisibleTextEndingInZeroWidth(t *testing.T) {
	want := Payload{Origin: Origin, Href: "/studio/intent/edit/id=p1;type=post;path=title"}
	for _, visible := range []string{
		"Hi\u200d\u200b",
		"Hi\u200d\u200b\u200d\u200b",
		"Hi\ufeff",
		"\u200c\u200c\u200c",
	} {
		out, err := Combine(visible, want)
		require.NoError(t, err)

		assert.Equal(t, visible, Clean(out), "visible %q", visible)
		got, err := Decode(out)
		require.NoError(t, err, "visible %q", visible)
		assert.Equal(t, want, got)
	}
}

func TestCleanAllStripsEveryRun(t *testing.T) {
	a, err := Combine("A blog ", Payload{Origin: Origin, Href: "/studio/intent/edit/id=s;type=settings;path=description[0].children[0].text"})
	require.NoError(t, err)
	b, err := Combine("about Go", Payload{Origin: Origin, Href: "/studio/intent/edit/id=s;type=settings;path=description[0].children[1].text"})
	require.NoError(t, err)

	joined := a + b
	assert.NotEqual(t, "A blog about Go", Clean(joined))
	assert.Equal(t, "A blog about Go", CleanAll(joined))
	assert.Equal(t, "plain", CleanAll("plain"))
	assert.Equal(t, "Hi\u200d\u200b", CleanAll("Hi\u200d\u200b"))
}
