// Package icon provides a flexible multi-variant rendering engine for UI symbols and feedback indicators.
//
// Icons can be displayed as emoji, nerd-font glyphs, or plain ASCII
// depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/key"
)

// Visual Variant Constants - these define the supported aesthetic styles for icon rendering.
const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// iconDef encapsulates the visual representations of a single UI symbol across all supported variants.
type iconDef struct {
	emoji string
	nerd  string
	plain string
}

// Get retrieves the visual representation for the receiver Def based on the global icons variant configuration.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return d.plain
	}
}

// Icon identifies a renderable UI symbol.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Play
	Pause
	Buffer
	Skip
	Subtitle
	Link
)

// icons is the global registry mapping identifiers to their per-variant glyphs.
var icons = map[Icon]iconDef{
	Fail:     {emoji: "❌", nerd: "", plain: "x"},
	Success:  {emoji: "✅", nerd: "", plain: "+"},
	Progress: {emoji: "⏳", nerd: "", plain: "..."},
	Play:     {emoji: "▶️", nerd: "", plain: ">"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||"},
	Buffer:   {emoji: "🌀", nerd: "", plain: "~"},
	Skip:     {emoji: "⏭️", nerd: "", plain: ">>"},
	Subtitle: {emoji: "💬", nerd: "", plain: "cc"},
	Link:     {emoji: "🔗", nerd: "", plain: "@"},
}

// Get returns the rendered string for a specified Icon identifier from the global registry.
func Get(i Icon) string {
	def := icons[i]
	return def.Get()
}
