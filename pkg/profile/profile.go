// Package profile converts the generic JSON-shaped tree internal/vdf
// produces into the typed document shape the binding compiler consumes
// (§4.5, §6): controller_mappings.group[] plus
// controller_mappings.preset.group_source_bindings.
package profile

import "fmt"

// ParseError reports a malformed or missing key in the profile tree, with a
// path pointing at the offending location (§7 ProfileParse).
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("profile: %s: %s", e.Path, e.Msg)
}

// Activator is one named activator ("Full_Press", etc.) under an input.
type Activator struct {
	// Bindings holds the raw "kind arg…" binding strings for this
	// activator, in profile order. A mode_shift activator may list more
	// than one; every other recognized kind uses element 0 (§4.5 tie-break).
	Bindings []string
}

// Input is one input slot ("click", "touch", "dpad_north", ...) inside a
// group, keyed by activator name.
type Input struct {
	Activators map[string]Activator
}

// Group is one controller_mappings.group[] entry.
type Group struct {
	ID     string
	Mode   string
	Inputs map[string]Input
}

// Preset inverts to source->id via GroupSourceBindings in Document.
type Preset struct {
	// GroupSourceBindings maps group id -> source tag, e.g.
	// "left_trackpad active" or "button_diamond active modeshift".
	GroupSourceBindings map[string]string
}

// Document is the typed profile the compiler walks.
type Document struct {
	Groups map[string]Group // keyed by group id
	Preset Preset
}

// Parse walks the generic tree produced by internal/vdf.Parse (itself the
// JSON-shaped intermediate form named in §6) into a Document, or a
// *ParseError pointing at the first structural problem found.
func Parse(tree map[string]any) (*Document, error) {
	cm, err := requireMap(tree, "controller_mappings", "$")
	if err != nil {
		return nil, err
	}

	groupsRaw, err := requireAny(cm, "group", "$.controller_mappings")
	if err != nil {
		return nil, err
	}

	groups := make(map[string]Group)
	for _, gv := range asList(groupsRaw) {
		gm, ok := gv.(map[string]any)
		if !ok {
			return nil, &ParseError{Path: "$.controller_mappings.group[]", Msg: "group entry is not an object"}
		}
		g, err := parseGroup(gm)
		if err != nil {
			return nil, err
		}
		groups[g.ID] = g
	}

	presetRaw, err := requireMap(cm, "preset", "$.controller_mappings")
	if err != nil {
		return nil, err
	}
	gsbRaw, err := requireMap(presetRaw, "group_source_bindings", "$.controller_mappings.preset")
	if err != nil {
		return nil, err
	}
	gsb := make(map[string]string, len(gsbRaw))
	for id, v := range gsbRaw {
		s, ok := v.(string)
		if !ok {
			return nil, &ParseError{Path: "$.controller_mappings.preset.group_source_bindings." + id, Msg: "not a string"}
		}
		gsb[id] = s
	}

	return &Document{Groups: groups, Preset: Preset{GroupSourceBindings: gsb}}, nil
}

func parseGroup(gm map[string]any) (Group, error) {
	id, _ := gm["id"].(string)
	if id == "" {
		return Group{}, &ParseError{Path: "$.controller_mappings.group[]", Msg: "missing id"}
	}
	mode, _ := gm["mode"].(string)

	inputs := make(map[string]Input)
	if inputsRaw, ok := gm["inputs"].(map[string]any); ok {
		for name, iv := range inputsRaw {
			im, ok := iv.(map[string]any)
			if !ok {
				continue
			}
			input := Input{Activators: make(map[string]Activator)}
			actsRaw, _ := im["activators"].(map[string]any)
			for actName, av := range actsRaw {
				am, ok := av.(map[string]any)
				if !ok {
					continue
				}
				input.Activators[actName] = Activator{Bindings: parseBindings(am)}
			}
			inputs[name] = input
		}
	}

	return Group{ID: id, Mode: mode, Inputs: inputs}, nil
}

// parseBindings extracts activators.<Name>.bindings.binding, which the
// upstream VDF-to-JSON conversion may present as a bare string or a list of
// strings when the key repeats (§4.5 tie-break note).
func parseBindings(activator map[string]any) []string {
	bm, ok := activator["bindings"].(map[string]any)
	if !ok {
		return nil
	}
	return asStringList(bm["binding"])
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		// A single group serializes as a bare object rather than a
		// one-element array when the upstream VDF has only one child.
		return []any{t}
	default:
		return nil
	}
}

func requireMap(m map[string]any, key, path string) (map[string]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, &ParseError{Path: path, Msg: "missing key " + key}
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path + "." + key, Msg: "expected object"}
	}
	return sub, nil
}

func requireAny(m map[string]any, key, path string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, &ParseError{Path: path, Msg: "missing key " + key}
	}
	return v, nil
}
