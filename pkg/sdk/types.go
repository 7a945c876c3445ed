package sdk

import (
	"encoding/json"
	"time"
)

type Instance struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Port        int       `json:"port"`
	RconPort    int       `json:"rcon_port"`
	Status      string    `json:"status"`
	GameMode    string    `json:"game_mode"`
	MaxPlayers  int       `json:"max_players"`
	CurrentMap  string    `json:"current_map"`
	InstallPath string    `json:"install_path"`
	LaunchArgs  string    `json:"launch_args"`
	AutoRestart bool      `json:"auto_restart"`
	AutoStart   bool      `json:"auto_start"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InstanceConfig struct {
	Name         string `json:"name,omitempty"`
	InstallPath  string `json:"install_path,omitempty"`
	Port         int    `json:"port,omitempty"`
	MaxPlayers   int    `json:"max_players,omitempty"`
	GameMode     string `json:"game_mode,omitempty"`
	Map          string `json:"map,omitempty"`
	RconPassword string `json:"rcon_password,omitempty"`
	GsltToken    string `json:"gslt_token,omitempty"`
	LaunchArgs   string `json:"launch_args,omitempty"`
	AutoRestart  bool   `json:"auto_restart,omitempty"`
	AutoStart    bool   `json:"auto_start,omitempty"`
}

type Player struct {
	UserID  int    `json:"user_id"`
	Name    string `json:"name"`
	SteamID string `json:"steam_id"`
	Ping    int    `json:"ping"`
	IP      string `json:"ip"`
}

type BanEntry struct {
	ID          string     `json:"id"`
	InstanceID  string     `json:"instance_id"`
	SteamID     string     `json:"steam_id"`
	IPAddress   string     `json:"ip_address"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsPermanent bool       `json:"is_permanent"`
	CreatedAt   time.Time  `json:"created_at"`
}

type BotConfig struct {
	Quota      int    `json:"quota"`
	QuotaMode  string `json:"quota_mode"`
	Difficulty int    `json:"difficulty"`
}

type MetricSnapshot struct {
	InstanceID string    `json:"instance_id"`
	CPUPct     float64   `json:"cpu_pct"`
	RAMMb      float64   `json:"ram_mb"`
	TickRate   float64   `json:"tick_rate"`
	Players    int       `json:"players"`
	NetInKbps  float64   `json:"net_in_kbps"`
	NetOutKbps float64   `json:"net_out_kbps"`
	Timestamp  time.Time `json:"timestamp"`
}

type BenchmarkResult struct {
	ID          string    `json:"id"`
	InstanceID  string    `json:"instance_id"`
	BotCount    int       `json:"bot_count"`
	AvgTickrate float64   `json:"avg_tickrate"`
	MinTickrate float64   `json:"min_tickrate"`
	CPUUsage    float64   `json:"cpu_usage"`
	RAMUsage    float64   `json:"ram_usage"`
	DurationSec int       `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

type Backup struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	BackupType string    `json:"backup_type"`
	CreatedAt  time.Time `json:"created_at"`
}

type ScheduledTask struct {
	ID         string     `json:"id"`
	InstanceID string     `json:"instance_id"`
	Name       string     `json:"name"`
	CronExpr   string     `json:"cron_expr"`
	Action     string     `json:"action"`
	Payload    string     `json:"payload"`
	Enabled    bool       `json:"enabled"`
	LastRun    *time.Time `json:"last_run"`
	NextRun    *time.Time `json:"next_run"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ConfigProfile struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Name       string    `json:"name"`
	Data       string    `json:"data"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConfigUpdateResult struct {
	AppliedLive     []string `json:"applied_live"`
	RequiresRestart []string `json:"requires_restart"`
}

type WorkshopItem struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	WorkshopID int64     `json:"workshop_id"`
	Title      string    `json:"title"`
	ItemType   string    `json:"item_type"`
	FileSize   int64     `json:"file_size"`
	Installed  bool      `json:"installed"`
	CreatedAt  time.Time `json:"created_at"`
}

type MapInfo struct {
	Name      string `json:"name"`
	FileName  string `json:"file_name"`
	SizeBytes int64  `json:"size_bytes"`
}

type PluginInfo struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
	Version   string `json:"version"`
	Path      string `json:"path"`
}

type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type CvarDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
	Hot         bool   `json:"hot"`
}

type GameModePreset struct {
	Name        string            `json:"name"`
	GameType    int               `json:"game_type"`
	GameMode    int               `json:"game_mode"`
	Description string            `json:"description"`
	Cvars       map[string]string `json:"cvars"`
	DefaultMap  string            `json:"default_map"`
}

type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}
