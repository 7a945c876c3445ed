package domain

import (
	"time"

	"github.com/google/uuid"
)

type InstanceRepository interface {
	SaveInstance(inst *Instance) error
	GetInstance(id uuid.UUID) (*Instance, error)
	ListInstances() ([]Instance, error)
	// UpdateInstance applies a keyed partial update atomically so status
	// writers and config editors never clobber each other's fields.
	UpdateInstance(id uuid.UUID, fields map[string]any) error
	UpdateStatus(id uuid.UUID, status string) error
	DeleteInstance(id uuid.UUID) error
}

type BanRepository interface {
	SaveBan(ban *BanEntry) error
	GetBan(id uuid.UUID) (*BanEntry, error)
	// ListBans returns bans for the instance that have not passively
	// expired as of now.
	ListBans(instanceID uuid.UUID, now time.Time) ([]BanEntry, error)
	DeleteBan(id uuid.UUID) error
	FindBanBySteamID(instanceID uuid.UUID, steamID string) (*BanEntry, error)
}

type TaskRepository interface {
	SaveTask(task *ScheduledTask) error
	GetTask(id uuid.UUID) (*ScheduledTask, error)
	ListTasks(instanceID uuid.UUID) ([]ScheduledTask, error)
	ListEnabledTasks() ([]ScheduledTask, error)
	UpdateTaskRuns(id uuid.UUID, lastRun, nextRun *time.Time) error
	UpdateTask(id uuid.UUID, fields map[string]any) error
	DeleteTask(id uuid.UUID) error
}

type BackupRepository interface {
	SaveBackup(b *Backup) error
	GetBackup(id uuid.UUID) (*Backup, error)
	ListBackups(instanceID uuid.UUID) ([]Backup, error)
	DeleteBackup(id uuid.UUID) error
}

type ProfileRepository interface {
	SaveProfile(p *ConfigProfile) error
	GetProfile(id uuid.UUID) (*ConfigProfile, error)
	ListProfiles(instanceID uuid.UUID) ([]ConfigProfile, error)
	SetActiveProfile(instanceID, profileID uuid.UUID) error
	DeleteProfile(id uuid.UUID) error
}

type WorkshopRepository interface {
	SaveWorkshopItem(item *WorkshopItem) error
	ListWorkshopItems(instanceID uuid.UUID) ([]WorkshopItem, error)
	MarkWorkshopInstalled(id uuid.UUID, installed bool) error
}

type BenchmarkRepository interface {
	SaveBenchmarkResult(r *BenchmarkResult) error
	ListBenchmarkResults(instanceID uuid.UUID) ([]BenchmarkResult, error)
}

type AuditRepository interface {
	AppendAudit(entry *AuditLog) error
	ListAudit(limit int) ([]AuditLog, error)
}

type SettingRepository interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

type Repository interface {
	InstanceRepository
	BanRepository
	TaskRepository
	BackupRepository
	ProfileRepository
	WorkshopRepository
	BenchmarkRepository
	AuditRepository
	SettingRepository
}
