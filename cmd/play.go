// Package cmd implements the command-line interface for vidra.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/auth"
	"github.com/vidra-app/vidra/history"
	"github.com/vidra-app/vidra/icon"
	"github.com/vidra-app/vidra/introdb"
	"github.com/vidra-app/vidra/key"
	"github.com/vidra-app/vidra/log"
	"github.com/vidra-app/vidra/network"
	"github.com/vidra-app/vidra/orchestrator"
	"github.com/vidra-app/vidra/playback"
	"github.com/vidra-app/vidra/player"
	"github.com/vidra-app/vidra/source"
	"github.com/vidra-app/vidra/subtitle"
	"github.com/vidra-app/vidra/util"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("player", "p", "", "Playback backend (auto, native, vlc, dec, web)")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("player", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{player.BackendAuto, player.BackendNative, player.BackendVLC, player.BackendDec, player.BackendWeb}, cobra.ShellCompDirectiveNoFileComp
	}))

	playCmd.Flags().StringP("title", "t", "", "Display title for the player window")
	playCmd.Flags().String("imdb", "", "IMDB identifier, enables segment skipping")
	playCmd.Flags().Int("season", 0, "Season number")
	playCmd.Flags().Int("episode", 0, "Episode number")
	playCmd.Flags().Float64("progress", 0, "Initial progress percentage to restore")
	playCmd.Flags().BoolP("continue", "c", false, "Resume from the stored watch history")
	playCmd.Flags().StringSlice("sub", nil, "External subtitle source, lang=url")
	playCmd.Flags().StringSlice("header", nil, "HTTP request header, 'Key: Value'")
	playCmd.Flags().BoolP("json", "j", false, "Print a session report as JSON on exit")

	playCmd.MarkFlagsMutuallyExclusive("progress", "continue")
}

// playCmd drives one playback session over the given stream candidates.
var playCmd = &cobra.Command{
	Use:     "play URL...",
	Short:   "Play one or more equivalent stream URLs",
	Args:    cobra.MinimumNArgs(1),
	Example: "  vidra play https://cdn.example.com/master.m3u8 --imdb tt0944947 --season 1 --episode 2",
	Run: func(cmd *cobra.Command, args []string) {
		media := source.Media{
			Title:   lo.Must(cmd.Flags().GetString("title")),
			ImdbID:  lo.Must(cmd.Flags().GetString("imdb")),
			Season:  lo.Must(cmd.Flags().GetInt("season")),
			Episode: lo.Must(cmd.Flags().GetInt("episode")),
		}
		if media.Title == "" {
			media.Title = media.Key()
		}

		headers, err := parseHeaders(lo.Must(cmd.Flags().GetStringSlice("header")))
		handleErr(err)

		videos := lo.Map(args, func(url string, i int) *source.Video {
			return &source.Video{URL: url, Headers: headers, Index: uint16(i)}
		})

		subs, err := parseSubtitles(lo.Must(cmd.Flags().GetStringSlice("sub")))
		handleErr(err)

		stream, err := source.NewStream(media, videos, subs)
		handleErr(err)

		if len(videos) > 1 {
			handleErr(pickCandidate(stream))
		}

		backendName := lo.Must(cmd.Flags().GetString("player"))
		if backendName == "" {
			backendName = viper.GetString(key.Player)
		}

		backend, err := player.Resolve(backendName, stream.Current().URL)
		handleErr(err)
		CheckDependencies(backend.Name())

		progress := lo.Must(cmd.Flags().GetFloat64("progress"))
		if lo.Must(cmd.Flags().GetBool("continue")) {
			progress, err = history.Progress(media)
			handleErr(err)

			// Continuing a fully watched item is a re-watch, not a resume
			// of the last few credit seconds.
			watched, err := history.Watched(media)
			handleErr(err)
			if watched {
				log.Infof("%s already watched (%.0f%%), restarting from the beginning", media, progress)
				progress = 0
			}
		}

		var sink history.Sink
		if viper.GetBool(key.HistorySaveOnPlay) {
			sink = history.NewDiskSink(media)
		}

		token, err := auth.GetToken()
		if err != nil {
			log.Infof("no subtitle provider token stored: %v", err)
		}

		session := orchestrator.New(stream, backend, orchestrator.Options{
			Settings:        playback.DefaultSettings(),
			InitialProgress: progress,
			Segments: introdb.NewService(
				viper.GetString(key.SkipBaseURL),
				viper.GetFloat64(key.SkipMinConfidence),
				network.Client,
			),
			SubtitleClient: subtitle.NewOpenSubtitles(token, network.Client),
			Sink:           sink,
			Callbacks: orchestrator.Callbacks{
				OnBackendSwitch: func(req orchestrator.SwitchRequest) {
					fmt.Printf("%s %s cannot decode this stream, retry with --player vlc (progress %.0f%%)\n",
						icon.Get(icon.Fail), req.From, req.Progress)
				},
			},
		})

		handleErr(session.Start())

		// The first external subtitle is applied up front; others are
		// switchable through the session.
		if len(subs) > 0 {
			if err := session.SelectSubtitle(0); err != nil {
				log.Warnf("initial subtitle: %v", err)
			}
		}

		runSession(session)

		if lo.Must(cmd.Flags().GetBool("json")) {
			report := struct {
				Media    source.Media `json:"media"`
				Player   string       `json:"player"`
				Progress float64      `json:"progress"`
				Duration float64      `json:"durationSec"`
				Watched  bool         `json:"watched"`
				Err      string       `json:"error,omitempty"`
			}{
				Media:    media,
				Player:   session.Backend().Name(),
				Progress: session.Progress(),
				Duration: session.State().Duration(),
				Watched:  session.Progress() >= viper.GetFloat64(key.PlayerCompletionPercentage),
				Err:      session.State().Error(),
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(report))
		}
	},
}

// runSession blocks until the active backend finishes or the user interrupts.
// Stream switches replace the backend, so the wait channel is re-resolved.
func runSession(session *orchestrator.Session) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	for {
		backend := session.Backend()
		select {
		case <-interrupt:
			session.Back()
			return
		case <-backend.Wait():
			if session.Backend() != backend {
				continue
			}
			_ = session.Close()
			return
		}
	}
}

// pickCandidate prompts for the initial stream candidate.
func pickCandidate(stream *source.Stream) error {
	labels := lo.Map(stream.Candidates(), func(v *source.Video, i int) string {
		return fmt.Sprintf("%d: %s", i+1, v)
	})

	var picked int
	prompt := &survey.Select{
		Message: fmt.Sprintf("Pick a stream (%s available)", util.Quantify(len(labels), "candidate", "candidates")),
		Options: labels,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return err
	}

	return stream.Select(picked)
}

// parseHeaders turns "Key: Value" strings into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		if !found {
			return nil, fmt.Errorf("malformed header %q, want 'Key: Value'", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseSubtitles turns "lang=url" strings into subtitle sources.
func parseSubtitles(raw []string) ([]subtitle.Source, error) {
	var subs []subtitle.Source
	for _, s := range raw {
		lang, url, found := strings.Cut(s, "=")
		if !found {
			return nil, errors.New("malformed subtitle source, want lang=url")
		}
		subs = append(subs, subtitle.Source{Language: lang, URL: url})
	}
	return subs, nil
}
