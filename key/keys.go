// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Player Selection - these keys govern which playback backend drives a session.
const (
	Player                     = "player.backend"
	PlayerSpeed                = "player.speed"
	PlayerMuted                = "player.muted"
	PlayerCompletionPercentage = "player.completion_percentage"
)

// Playback Orchestration Tuning - timing constants for the session state machine.
// These are tuned values, exposed here so they stay adjustable rather than baked in.
const (
	PlaybackSeekSettleMs     = "playback.seek_settle_ms"
	PlaybackSpinnerGraceMs   = "playback.spinner_grace_ms"
	PlaybackControlsHideMs   = "playback.controls_hide_ms"
	PlaybackProgressFlushSec = "playback.progress_flush_sec"
)

// Subtitle Rendering - these keys configure the application-rendered subtitle engine.
const (
	SubtitleDelayMs  = "subtitle.delay_ms"
	SubtitlePosition = "subtitle.position"
	SubtitleTickMs   = "subtitle.tick_ms"
)

// Segment Skipping - these keys configure the intro/recap/outro skip engine.
const (
	SkipEnabled       = "skip.auto"
	SkipMinConfidence = "skip.min_confidence"
	SkipRateLimitSec  = "skip.rate_limit_sec"
	SkipBaseURL       = "skip.base_url"
)

// Subtitle Resolution Service - these keys manage the OpenSubtitles-shaped download client.
const (
	OpenSubtitlesBaseURL = "opensubtitles.base_url"
)

// History Tracking - these keys configure the persistence of playback progress.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Diagnostics - these keys govern the structured logging subsystem.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Command-Line Interface - these keys define CLI presentation behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
