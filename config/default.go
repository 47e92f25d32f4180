// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/color"
	"github.com/vidra-app/vidra/constant"
	"github.com/vidra-app/vidra/key"
	"github.com/vidra-app/vidra/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Vidra + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case float64:
		return "float64"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.Player, "auto", "Playback backend to use.\nAvailable options are: auto, native, vlc, dec, web.\n\"auto\" runs the codec pre-flight check and picks native or vlc")
	register(key.PlayerSpeed, 1.0, "Initial playback speed multiplier")
	register(key.PlayerMuted, false, "Start playback muted")
	register(key.PlayerCompletionPercentage, 80, "Percentage required to mark an item as watched (1-100)")

	register(key.PlaybackSeekSettleMs, 250, "Seek completion settle delay in milliseconds.\nUsed for backends without a true seek-completion signal")
	register(key.PlaybackSpinnerGraceMs, 400, "Grace window after a user seek during which the buffering spinner stays hidden")
	register(key.PlaybackControlsHideMs, 4000, "Idle delay before on-screen controls auto-hide")
	register(key.PlaybackProgressFlushSec, 60, "Interval between periodic progress persistence flushes")

	register(key.SubtitleDelayMs, 0, "Subtitle delay in milliseconds.\nPositive values show cues later, negative earlier")
	register(key.SubtitlePosition, "bottom", "Subtitle position.\nAvailable options are: bottom, top")
	register(key.SubtitleTickMs, 200, "Interval between active-cue re-evaluations while app-rendered subtitles are on")

	register(key.SkipEnabled, true, "Enable automatic intro/recap/outro skipping")
	register(key.SkipMinConfidence, 0.5, "Minimum detection confidence for a segment to be actionable. From 0 to 1")
	register(key.SkipRateLimitSec, 3, "Minimum wall-clock seconds between two skip actions")
	register(key.SkipBaseURL, "https://api.introdb.app", "Base URL of the segment detection API")

	register(key.OpenSubtitlesBaseURL, "https://api.opensubtitles.com/api/v1", "Base URL of the OpenSubtitles-compatible subtitle API")

	register(key.HistorySaveOnPlay, true, "Persist playback progress to the localized watch history")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
