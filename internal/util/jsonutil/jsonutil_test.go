package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscapeKeepsMarkup(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"uiCode": `<div class="p-4">&amp;</div>`})
	require.NoError(t, err)
	assert.Equal(t, `{"uiCode":"<div class=\"p-4\">&amp;</div>"}`, string(out))
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	out, err := MarshalNoEscapeIndent([]int{1, 2}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  2\n]", string(out))
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"<div></div>":                      "<div></div>",
		"```html\n<div></div>\n```":        "<div></div>",
		"  ```json\n[1,2]\n```  \n":        "[1,2]",
		"```\n<p>x</p>```":                 "<p>x</p>",
		"```<p>inline</p>```":              "<p>inline</p>",
		"text before ```html\n<b></b>\n```": "text before ```html\n<b></b>\n```",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFence(in), "input %q", in)
	}
}

func TestUnmarshalFlexUnwrapsEncodedDocument(t *testing.T) {
	var direct []int
	require.NoError(t, UnmarshalFlex([]byte(`[1,2,3]`), &direct))
	assert.Equal(t, []int{1, 2, 3}, direct)

	var wrapped []int
	require.NoError(t, UnmarshalFlex([]byte(`"[4,5]"`), &wrapped))
	assert.Equal(t, []int{4, 5}, wrapped)

	var bad []int
	assert.Error(t, UnmarshalFlex([]byte(`[1,`), &bad))
}
