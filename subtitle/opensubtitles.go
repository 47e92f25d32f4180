package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/constant"
	"github.com/vidra-app/vidra/key"
)

// OpenSubtitles is the on-demand resolution client for sources that expose a
// file identifier instead of a direct URL. The provider is paid/rate-limited,
// so download links are requested just-in-time, on selection only.
type OpenSubtitles struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenSubtitles builds a client against the configured API base URL.
func NewOpenSubtitles(apiKey string, client *http.Client) *OpenSubtitles {
	return &OpenSubtitles{
		baseURL: viper.GetString(key.OpenSubtitlesBaseURL),
		apiKey:  apiKey,
		client:  client,
	}
}

// downloadRequest is the JSON payload of the download-link endpoint.
type downloadRequest struct {
	FileID int `json:"file_id"`
}

// downloadResponse is the union of the success and failure response shapes.
type downloadResponse struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
}

// DownloadSubtitle resolves a subtitle file identifier into a download link.
func (o *OpenSubtitles) DownloadSubtitle(fileID int) (*DownloadResult, error) {
	payload, err := json.Marshal(downloadRequest{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("marshal download request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, o.baseURL+"/download", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constant.UserAgent)
	if o.apiKey != "" {
		req.Header.Set("Api-Key", o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download response: %w", err)
	}

	var parsed downloadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse download response: %w", err)
	}

	if parsed.Link == "" {
		if parsed.Message != "" {
			return nil, fmt.Errorf("subtitle provider rejected file %d: %s (status %d)", fileID, parsed.Message, parsed.Status)
		}
		return nil, fmt.Errorf("subtitle provider returned no link for file %d (http %d)", fileID, resp.StatusCode)
	}

	return &DownloadResult{Link: parsed.Link, FileName: parsed.FileName}, nil
}
