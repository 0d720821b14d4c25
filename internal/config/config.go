// Package config implements the Configuration Store: a single-row SQLite
// snapshot of the settings the core reads at each admission decision and
// each tunnel (re)start.
package config

import "github.com/spf13/viper"

// Snapshot is the read-only configuration record the core consumes.
// Recognized fields per spec.md §3 and the PUT /api/config body in §6.
type Snapshot struct {
	Name              string   `mapstructure:"name" json:"name"`
	Directory         string   `mapstructure:"directory" json:"directory"`
	Command           string   `mapstructure:"command" json:"command"`
	FrontendDirectory string   `mapstructure:"frontend_directory" json:"frontend_directory"`
	FrontendCommand   string   `mapstructure:"frontend_command" json:"frontend_command"`
	Port              int      `mapstructure:"port" json:"port"`
	LANIP             string   `mapstructure:"lan_ip" json:"lan_ip"`
	LANEnabled        bool     `mapstructure:"lan_enabled" json:"lan_enabled"`
	NgrokEnabled      bool     `mapstructure:"ngrok_enabled" json:"ngrok_enabled"`
	CloudflareEnabled bool     `mapstructure:"cloudflare_enabled" json:"cloudflare_enabled"`
	QueueEnabled      bool     `mapstructure:"queue_enabled" json:"queue_enabled"`
	ConcurrencyCap    int      `mapstructure:"concurrency_cap" json:"concurrency_cap"`
	LocalhostPriority bool     `mapstructure:"localhost_priority" json:"localhost_priority"`
	HeartbeatTimeout  int      `mapstructure:"heartbeat_timeout_seconds" json:"heartbeat_timeout_seconds"`
	LogTheme          string   `mapstructure:"log_theme" json:"log_theme"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" json:"allowed_origins"`
}

// PartialUpdate carries only the fields PUT /api/config supplied; nil
// pointers mean "leave unchanged" per spec.md §6.
type PartialUpdate struct {
	Name              *string
	Directory         *string
	Command           *string
	FrontendDirectory *string
	FrontendCommand   *string
	Port              *int
	LANIP             *string
	LANEnabled        *bool
	NgrokEnabled      *bool
	CloudflareEnabled *bool
	QueueEnabled      *bool
}

// Defaults returns the baseline Snapshot values, matching the teacher's
// am.SetDefaults idiom of seeding a viper instance with SetDefault calls.
func Defaults() Snapshot {
	v := viper.New()
	SetDefaults(v)

	return Snapshot{
		ConcurrencyCap:    v.GetInt("concurrency_cap"),
		LocalhostPriority: v.GetBool("localhost_priority"),
		HeartbeatTimeout:  v.GetInt("heartbeat_timeout_seconds"),
		LogTheme:          v.GetString("log_theme"),
		AllowedOrigins:    v.GetStringSlice("allowed_origins"),
		LANEnabled:        v.GetBool("lan_enabled"),
		NgrokEnabled:      v.GetBool("ngrok_enabled"),
		CloudflareEnabled: v.GetBool("cloudflare_enabled"),
		QueueEnabled:      v.GetBool("queue_enabled"),
	}
}

// SetDefaults configures default values for the configuration store,
// mirroring the teacher's am.SetDefaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("concurrency_cap", 1)
	v.SetDefault("localhost_priority", true)
	v.SetDefault("heartbeat_timeout_seconds", 30)
	v.SetDefault("log_theme", "everforest")
	v.SetDefault("lan_enabled", false)
	v.SetDefault("ngrok_enabled", false)
	v.SetDefault("cloudflare_enabled", false)
	v.SetDefault("queue_enabled", true)
	v.SetDefault("allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
}
