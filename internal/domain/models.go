package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Instance statuses. starting/running/stopping belong to the process
// lifecycle; installing/updating are entered only from stopped and
// return to stopped, so a running server can never be updated in place.
const (
	StatusStopped    = "stopped"
	StatusStarting   = "starting"
	StatusRunning    = "running"
	StatusStopping   = "stopping"
	StatusCrashed    = "crashed"
	StatusInstalling = "installing"
	StatusUpdating   = "updating"
)

// Backup archive types.
const (
	BackupFull    = "full"
	BackupConfig  = "config"
	BackupMaps    = "maps"
	BackupPlugins = "plugins"
)

// Scheduled task actions.
const (
	TaskActionRcon    = "rcon"
	TaskActionBackup  = "backup"
	TaskActionRestart = "restart"
)

// Instance is one managed CS2 dedicated-server deployment.
type Instance struct {
	ID           uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Port         int       `gorm:"not null" json:"port"`
	RconPort     int       `gorm:"column:rcon_port;not null" json:"rcon_port"`
	Status       string    `gorm:"default:stopped" json:"status"`
	GameMode     string    `gorm:"column:game_mode" json:"game_mode"`
	MaxPlayers   int       `gorm:"column:max_players;default:10" json:"max_players"`
	CurrentMap   string    `gorm:"column:current_map" json:"current_map"`
	InstallPath  string    `gorm:"column:install_path" json:"install_path"`
	LaunchArgs   string    `gorm:"column:launch_args" json:"launch_args"`
	RconPassword string    `gorm:"column:rcon_password" json:"-"`
	GsltToken    string    `gorm:"column:gslt_token" json:"-"`
	AutoRestart  bool      `gorm:"column:auto_restart;default:true" json:"auto_restart"`
	AutoStart    bool      `gorm:"column:auto_start" json:"auto_start"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i *Instance) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ConfigProfile is a named snapshot of an instance's cvar configuration.
type ConfigProfile struct {
	ID         uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	Name       string    `gorm:"not null" json:"name"`
	Data       string    `gorm:"type:text" json:"data"` // JSON cvar map
	IsActive   bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *ConfigProfile) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BanEntry is a ban on one instance. A nil ExpiresAt means permanent;
// expiry is enforced at query time, never by a timer.
type BanEntry struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID  uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	SteamID     string     `gorm:"column:steam_id;not null;index" json:"steam_id"`
	IPAddress   string     `gorm:"column:ip_address;index" json:"ip_address"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsPermanent bool       `gorm:"column:is_permanent" json:"is_permanent"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (b *BanEntry) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// WorkshopItem tracks a Steam Workshop download for an instance.
type WorkshopItem struct {
	ID         uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	WorkshopID int64     `gorm:"column:workshop_id;not null;index" json:"workshop_id"`
	Title      string    `json:"title"`
	ItemType   string    `gorm:"column:item_type;index" json:"item_type"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size"`
	Installed  bool      `gorm:"default:false" json:"installed"`
	CreatedAt  time.Time `json:"created_at"`
}

func (w *WorkshopItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Backup is one archive on disk, recorded with its type and size.
type Backup struct {
	ID         uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	Path       string    `gorm:"not null" json:"path"`
	SizeBytes  int64     `gorm:"column:size_bytes" json:"size_bytes"`
	BackupType string    `gorm:"column:backup_type;index" json:"backup_type"`
	CreatedAt  time.Time `json:"created_at"`
}

func (b *Backup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ScheduledTask is a cron-driven action against one instance.
type ScheduledTask struct {
	ID         uuid.UUID  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	Name       string     `json:"name"`
	CronExpr   string     `gorm:"column:cron_expr;not null" json:"cron_expr"`
	Action     string     `gorm:"index" json:"action"`
	Payload    string     `gorm:"type:text" json:"payload"` // command text for rcon tasks
	Enabled    bool       `gorm:"default:true" json:"enabled"`
	LastRun    *time.Time `gorm:"column:last_run" json:"last_run"`
	NextRun    *time.Time `gorm:"column:next_run" json:"next_run"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *ScheduledTask) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// BenchmarkResult stores the outcome of one bot-load benchmark run.
type BenchmarkResult struct {
	ID           uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InstanceID   uuid.UUID `gorm:"type:varchar(36);not null;index" json:"instance_id"`
	BotCount     int       `gorm:"column:bot_count" json:"bot_count"`
	AvgTickrate  float64   `gorm:"column:avg_tickrate" json:"avg_tickrate"`
	MinTickrate  float64   `gorm:"column:min_tickrate" json:"min_tickrate"`
	AvgFrametime float64   `gorm:"column:avg_frametime" json:"avg_frametime"`
	CPUUsage     float64   `gorm:"column:cpu_usage" json:"cpu_usage"`
	RAMUsage     float64   `gorm:"column:ram_usage" json:"ram_usage"`
	DurationSec  int       `gorm:"column:duration_sec" json:"duration_sec"`
	CreatedAt    time.Time `json:"created_at"`
}

func (b *BenchmarkResult) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AuditLog records one administrative action.
type AuditLog struct {
	ID        uuid.UUID `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Action    string    `gorm:"index" json:"action"`
	Target    string    `gorm:"index" json:"target"`
	Details   string    `gorm:"type:text" json:"details"` // JSON
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AppSetting is one key-value application setting.
type AppSetting struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// MetricSnapshot is one sampling tick for a running instance. Snapshots
// live in an in-memory ring per instance and are discarded on stop.
type MetricSnapshot struct {
	InstanceID uuid.UUID `json:"instance_id"`
	CPUPct     float64   `json:"cpu_pct"`
	RAMMb      float64   `json:"ram_mb"`
	TickRate   float64   `json:"tick_rate"`
	Players    int       `json:"players"`
	NetInKbps  float64   `json:"net_in_kbps"`
	NetOutKbps float64   `json:"net_out_kbps"`
	Timestamp  time.Time `json:"timestamp"`
}

// Progress reports a stage of a long-running install or download.
type Progress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Player is one connected player parsed from an RCON status reply.
type Player struct {
	UserID  int    `json:"user_id"`
	Name    string `json:"name"`
	SteamID string `json:"steam_id"`
	Ping    int    `json:"ping"`
	IP      string `json:"ip"`
}
