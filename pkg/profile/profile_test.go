package profile_test

import (
	"testing"

	"github.com/sc-userland/steamctl/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() map[string]any {
	return map[string]any{
		"controller_mappings": map[string]any{
			"group": []any{
				map[string]any{
					"id":   "2",
					"mode": "four_buttons",
					"inputs": map[string]any{
						"button_a": map[string]any{
							"activators": map[string]any{
								"Full_Press": map[string]any{
									"bindings": map[string]any{
										"binding": "key_press A",
									},
								},
							},
						},
					},
				},
			},
			"preset": map[string]any{
				"group_source_bindings": map[string]any{
					"2": "button_diamond active",
				},
			},
		},
	}
}

func TestParseHappyPath(t *testing.T) {
	doc, err := profile.Parse(sampleTree())
	require.NoError(t, err)
	require.Contains(t, doc.Groups, "2")
	g := doc.Groups["2"]
	assert.Equal(t, "four_buttons", g.Mode)
	assert.Equal(t, []string{"key_press A"}, g.Inputs["button_a"].Activators["Full_Press"].Bindings)
	assert.Equal(t, "button_diamond active", doc.Preset.GroupSourceBindings["2"])
}

func TestParseMissingControllerMappings(t *testing.T) {
	_, err := profile.Parse(map[string]any{})
	require.Error(t, err)
	var pe *profile.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseMultiValueBindingList(t *testing.T) {
	tree := sampleTree()
	cm := tree["controller_mappings"].(map[string]any)
	groups := cm["group"].([]any)
	g0 := groups[0].(map[string]any)
	inputs := g0["inputs"].(map[string]any)
	ba := inputs["button_a"].(map[string]any)
	acts := ba["activators"].(map[string]any)
	fp := acts["Full_Press"].(map[string]any)
	bindings := fp["bindings"].(map[string]any)
	bindings["binding"] = []any{"mode_shift button_diamond", "mode_shift switch"}

	doc, err := profile.Parse(tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"mode_shift button_diamond", "mode_shift switch"},
		doc.Groups["2"].Inputs["button_a"].Activators["Full_Press"].Bindings)
}

func TestParseSingleGroupNotArray(t *testing.T) {
	tree := sampleTree()
	cm := tree["controller_mappings"].(map[string]any)
	groups := cm["group"].([]any)
	cm["group"] = groups[0] // bare object, not wrapped in a list

	doc, err := profile.Parse(tree)
	require.NoError(t, err)
	assert.Contains(t, doc.Groups, "2")
}
