// File: internal/browser/session/keys.go
package session

import (
	"strings"
	"unicode"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// namedKeys maps the key names accepted by pressKey and key combinations to
// their CDP identities. Names are matched case-insensitively.
var namedKeys = map[string]schemas.KeyInput{
	"enter":     {Key: "Enter", Code: "Enter", Text: "\r", WindowsVirtualKeyCode: 13},
	"tab":       {Key: "Tab", Code: "Tab", WindowsVirtualKeyCode: 9},
	"escape":    {Key: "Escape", Code: "Escape", WindowsVirtualKeyCode: 27},
	"esc":       {Key: "Escape", Code: "Escape", WindowsVirtualKeyCode: 27},
	"space":     {Key: " ", Code: "Space", Text: " ", WindowsVirtualKeyCode: 32},
	"backspace": {Key: "Backspace", Code: "Backspace", WindowsVirtualKeyCode: 8},
	"delete":    {Key: "Delete", Code: "Delete", WindowsVirtualKeyCode: 46},

	"arrow_up":    {Key: "ArrowUp", Code: "ArrowUp", WindowsVirtualKeyCode: 38},
	"arrow_down":  {Key: "ArrowDown", Code: "ArrowDown", WindowsVirtualKeyCode: 40},
	"arrow_left":  {Key: "ArrowLeft", Code: "ArrowLeft", WindowsVirtualKeyCode: 37},
	"arrow_right": {Key: "ArrowRight", Code: "ArrowRight", WindowsVirtualKeyCode: 39},
	"up":          {Key: "ArrowUp", Code: "ArrowUp", WindowsVirtualKeyCode: 38},
	"down":        {Key: "ArrowDown", Code: "ArrowDown", WindowsVirtualKeyCode: 40},
	"left":        {Key: "ArrowLeft", Code: "ArrowLeft", WindowsVirtualKeyCode: 37},
	"right":       {Key: "ArrowRight", Code: "ArrowRight", WindowsVirtualKeyCode: 39},

	"home":      {Key: "Home", Code: "Home", WindowsVirtualKeyCode: 36},
	"end":       {Key: "End", Code: "End", WindowsVirtualKeyCode: 35},
	"page_up":   {Key: "PageUp", Code: "PageUp", WindowsVirtualKeyCode: 33},
	"page_down": {Key: "PageDown", Code: "PageDown", WindowsVirtualKeyCode: 34},
	"pageup":    {Key: "PageUp", Code: "PageUp", WindowsVirtualKeyCode: 33},
	"pagedown":  {Key: "PageDown", Code: "PageDown", WindowsVirtualKeyCode: 34},

	"ctrl":    {Key: "Control", Code: "ControlLeft", WindowsVirtualKeyCode: 17},
	"control": {Key: "Control", Code: "ControlLeft", WindowsVirtualKeyCode: 17},
	"shift":   {Key: "Shift", Code: "ShiftLeft", WindowsVirtualKeyCode: 16},
	"alt":     {Key: "Alt", Code: "AltLeft", WindowsVirtualKeyCode: 18},
	"meta":    {Key: "Meta", Code: "MetaLeft", WindowsVirtualKeyCode: 91},
	"cmd":     {Key: "Meta", Code: "MetaLeft", WindowsVirtualKeyCode: 91},
	"command": {Key: "Meta", Code: "MetaLeft", WindowsVirtualKeyCode: 91},
}

// ResolveKey turns a key name into its CDP identity. Unrecognized names pass
// through literally: a single printable character becomes a text-producing
// key, anything else is dispatched with the name as the key value.
func ResolveKey(name string) schemas.KeyInput {
	if key, ok := namedKeys[strings.ToLower(name)]; ok {
		return key
	}
	runes := []rune(name)
	if len(runes) == 1 && unicode.IsPrint(runes[0]) {
		return charKey(runes[0])
	}
	return schemas.KeyInput{Key: name}
}

func charKey(r rune) schemas.KeyInput {
	key := schemas.KeyInput{Key: string(r), Text: string(r)}
	switch {
	case r >= 'a' && r <= 'z':
		key.Code = "Key" + strings.ToUpper(string(r))
		key.WindowsVirtualKeyCode = int(unicode.ToUpper(r))
	case r >= 'A' && r <= 'Z':
		key.Code = "Key" + string(r)
		key.WindowsVirtualKeyCode = int(r)
	case r >= '0' && r <= '9':
		key.Code = "Digit" + string(r)
		key.WindowsVirtualKeyCode = int(r)
	}
	return key
}

// ParseCombo splits a "+"-joined combination like "ctrl+shift+a" into its
// resolved keys in order. A lone "+" is the plus key itself.
func ParseCombo(combo string) []schemas.KeyInput {
	if strings.TrimSpace(combo) == "+" {
		return []schemas.KeyInput{ResolveKey("+")}
	}
	parts := strings.Split(combo, "+")
	keys := make([]schemas.KeyInput, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keys = append(keys, ResolveKey(part))
	}
	return keys
}
