package vdf_test

import (
	"strings"
	"testing"

	"github.com/sc-userland/steamctl/internal/vdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedObject(t *testing.T) {
	src := `
"controller_mappings"
{
	"group"
	{
		"id"	"2"
		"mode"	"four_buttons"
	}
}
`
	tree, err := vdf.Parse(strings.NewReader(src))
	require.NoError(t, err)

	cm, ok := tree["controller_mappings"].(map[string]any)
	require.True(t, ok)
	group, ok := cm["group"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2", group["id"])
	assert.Equal(t, "four_buttons", group["mode"])
}

func TestParseRepeatedKeyBecomesOrderedList(t *testing.T) {
	src := `
"binding" "key_press A"
"binding" "key_press B"
`
	tree, err := vdf.Parse(strings.NewReader(src))
	require.NoError(t, err)
	list, ok := tree["binding"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"key_press A", "key_press B"}, list)
}

func TestParseUnterminatedObject(t *testing.T) {
	_, err := vdf.Parse(strings.NewReader(`"a" { "b" "c"`))
	require.Error(t, err)
}

func TestParseLineCommentIgnored(t *testing.T) {
	src := `
// a top-level comment
"a" "1"
`
	tree, err := vdf.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "1", tree["a"])
}
