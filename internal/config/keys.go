package config

import "os"

// SettingSource represents where a sensitive setting comes from.
type SettingSource string

const (
	SourceEnv    SettingSource = "env"
	SourceConfig SettingSource = "config"
	SourceNone   SettingSource = "none"
)

// SettingStatus describes a sensitive setting without revealing it.
type SettingStatus struct {
	Name   string        `json:"name"`
	Source SettingSource `json:"source"`
	IsSet  bool          `json:"is_set"`
	Masked string        `json:"masked,omitempty"` // e.g., "pos...ble"
}

// CheckSettings returns the status of settings that may carry credentials
// or contact details.
func CheckSettings(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkSetting("EDGAR User-Agent", cfg.EDGAR.UserAgent, EnvPrefix+"_EDGAR_USER_AGENT"),
		checkSetting("Postgres DSN", cfg.Storage.DSN, EnvPrefix+"_STORAGE_DSN"),
	}
}

// checkSetting checks if a value is set and where it came from.
func checkSetting(name, value, envVar string) SettingStatus {
	status := SettingStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = mask(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// mask shows only the first 3 and last 3 chars.
func mask(v string) string {
	if len(v) <= 8 {
		return "***"
	}
	return v[:3] + "..." + v[len(v)-3:]
}
