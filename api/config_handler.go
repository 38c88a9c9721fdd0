package api

import (
	"net/http"

	"github.com/seenimoa/fundseeker/internal/config"
)

// ConfigResponse is the data of GET /api/v1/config. Credentials are never
// included; see /api/v1/config/settings for their status.
type ConfigResponse struct {
	EDGAR struct {
		BaseURL    string `json:"base_url"`
		FeedURL    string `json:"feed_url"`
		TimeoutSec int    `json:"timeout_sec"`
		RateLimit  int    `json:"rate_limit"`
		CacheTTL   int    `json:"cache_ttl"`
	} `json:"edgar"`
	Storage struct {
		Driver string `json:"driver"`
		Path   string `json:"path,omitempty"`
	} `json:"storage"`
	Import struct {
		Concurrency int   `json:"concurrency"`
		DefaultCIKs []int `json:"default_ciks"`
		RecentLimit int   `json:"recent_limit"`
	} `json:"import"`
	Kafka struct {
		Enabled bool   `json:"enabled"`
		Topic   string `json:"topic,omitempty"`
		Brokers int    `json:"brokers"`
	} `json:"kafka"`
	Logging struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"logging"`
}

// redactConfig copies the non-sensitive settings of cfg.
func redactConfig(cfg *config.Config) ConfigResponse {
	var out ConfigResponse
	out.EDGAR.BaseURL = cfg.EDGAR.BaseURL
	out.EDGAR.FeedURL = cfg.EDGAR.FeedURL
	out.EDGAR.TimeoutSec = cfg.EDGAR.TimeoutSec
	out.EDGAR.RateLimit = cfg.EDGAR.RateLimit
	out.EDGAR.CacheTTL = cfg.EDGAR.CacheTTL

	out.Storage.Driver = cfg.Storage.Driver
	if cfg.Storage.Driver == "sqlite" {
		out.Storage.Path = cfg.Storage.Path
	}

	out.Import.Concurrency = cfg.Import.Concurrency
	out.Import.DefaultCIKs = append([]int{}, cfg.Import.DefaultCIKs...)
	out.Import.RecentLimit = cfg.Import.RecentLimit

	out.Kafka.Enabled = cfg.Events.Kafka.Enabled
	if cfg.Events.Kafka.Enabled {
		out.Kafka.Topic = cfg.Events.Kafka.Topic
		out.Kafka.Brokers = len(cfg.Events.Kafka.Brokers)
	}

	out.Logging.Level = cfg.Logging.Level
	out.Logging.Format = cfg.Logging.Format
	return out
}

// handleGetConfig returns the running configuration without credentials.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    redactConfig(s.cfg),
	})
}

// handleGetConfigSettings returns the status of sensitive settings.
func (s *Server) handleGetConfigSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckSettings(s.cfg),
	})
}
