package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/vidra-app/vidra/log"
)

// Downloader resolves a subtitle file identifier into a temporary download
// link. The OpenSubtitles client satisfies this; tests substitute a stub.
type Downloader interface {
	DownloadSubtitle(fileID int) (*DownloadResult, error)
}

// DownloadResult is the successful response of an on-demand resolution.
type DownloadResult struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
}

// Load fetches and parses a subtitle source into an ordered cue sequence.
// Direct-URL sources are fetched as-is; sources without a URL are first
// resolved through the provided Downloader. Any fetch or parse failure yields
// a descriptive error: the caller must discard previously displayed text and
// never show stale cues from a different source.
func Load(src Source, dl Downloader, client *http.Client) ([]Cue, error) {
	url := src.URL

	if url == "" {
		if dl == nil {
			return nil, fmt.Errorf("subtitle source %q has no URL and no download client", src)
		}

		resolved, err := dl.DownloadSubtitle(src.FileID)
		if err != nil {
			return nil, fmt.Errorf("resolve subtitle %d: %w", src.FileID, err)
		}
		url = resolved.Link
		log.Debugf("resolved subtitle file %d to %s", src.FileID, resolved.FileName)
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch subtitle: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read subtitle body: %w", err)
	}

	cues, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse subtitle %q: %w", src, err)
	}
	return cues, nil
}

// Parse converts raw SRT or WebVTT text into cues. The format is sniffed from
// the content itself since download links rarely carry a meaningful extension.
func Parse(raw []byte) ([]Cue, error) {
	var (
		subs *astisub.Subtitles
		err  error
	)

	if isWebVTT(raw) {
		subs, err = astisub.ReadFromWebVTT(bytes.NewReader(raw))
	} else {
		subs, err = astisub.ReadFromSRT(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}

	cues := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			lines = append(lines, line.String())
		}

		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if text == "" {
			continue
		}

		cues = append(cues, Cue{
			StartMs: item.StartAt.Milliseconds(),
			EndMs:   item.EndAt.Milliseconds(),
			Text:    text,
		})
	}

	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues found")
	}

	sort.Slice(cues, func(i, j int) bool { return cues[i].StartMs < cues[j].StartMs })
	return cues, nil
}

func isWebVTT(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, "\uFEFF \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("WEBVTT"))
}
