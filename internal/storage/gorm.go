package storage

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cs2panel/internal/domain"
)

// GormStore is the durable registry behind all daemon state. It is the
// only component that touches the database; everything else goes
// through the domain repository interfaces.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	gl := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "open database")
	}

	if err := db.AutoMigrate(
		&domain.Instance{},
		&domain.ConfigProfile{},
		&domain.BanEntry{},
		&domain.WorkshopItem{},
		&domain.Backup{},
		&domain.ScheduledTask{},
		&domain.BenchmarkResult{},
		&domain.AuditLog{},
		&domain.AppSetting{},
	); err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "migrate database")
	}

	return &GormStore{db: db}, nil
}

var _ domain.Repository = (*GormStore)(nil)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Errorf(domain.KindNotFound, "%s not found", what)
	}
	return domain.Wrap(domain.KindIO, err, "query "+what)
}

// Instances

func (s *GormStore) SaveInstance(inst *domain.Instance) error {
	return s.db.Save(inst).Error
}

func (s *GormStore) GetInstance(id uuid.UUID) (*domain.Instance, error) {
	var inst domain.Instance
	if err := s.db.First(&inst, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "instance")
	}
	return &inst, nil
}

func (s *GormStore) ListInstances() ([]domain.Instance, error) {
	var instances []domain.Instance
	if err := s.db.Order("created_at").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *GormStore) UpdateInstance(id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return domain.Errorf(domain.KindValidation, "no fields to update")
	}
	res := s.db.Model(&domain.Instance{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "instance not found")
	}
	return nil
}

func (s *GormStore) UpdateStatus(id uuid.UUID, status string) error {
	return s.db.Model(&domain.Instance{}).Where("id = ?", id).Update("status", status).Error
}

func (s *GormStore) DeleteInstance(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&domain.BanEntry{}, &domain.ScheduledTask{}, &domain.Backup{},
			&domain.ConfigProfile{}, &domain.WorkshopItem{}, &domain.BenchmarkResult{},
		} {
			if err := tx.Delete(m, "instance_id = ?", id).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Instance{}, "id = ?", id).Error
	})
}

// Bans

func (s *GormStore) SaveBan(ban *domain.BanEntry) error {
	return s.db.Create(ban).Error
}

func (s *GormStore) GetBan(id uuid.UUID) (*domain.BanEntry, error) {
	var ban domain.BanEntry
	if err := s.db.First(&ban, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "ban")
	}
	return &ban, nil
}

func (s *GormStore) ListBans(instanceID uuid.UUID, now time.Time) ([]domain.BanEntry, error) {
	var bans []domain.BanEntry
	err := s.db.
		Where("instance_id = ?", instanceID).
		Where("is_permanent = ? OR expires_at IS NULL OR expires_at > ?", true, now).
		Order("created_at desc").
		Find(&bans).Error
	if err != nil {
		return nil, err
	}
	return bans, nil
}

func (s *GormStore) DeleteBan(id uuid.UUID) error {
	res := s.db.Delete(&domain.BanEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "ban not found")
	}
	return nil
}

func (s *GormStore) FindBanBySteamID(instanceID uuid.UUID, steamID string) (*domain.BanEntry, error) {
	var ban domain.BanEntry
	err := s.db.First(&ban, "instance_id = ? AND steam_id = ?", instanceID, steamID).Error
	if err != nil {
		return nil, notFound(err, "ban")
	}
	return &ban, nil
}

// Scheduled tasks

func (s *GormStore) SaveTask(task *domain.ScheduledTask) error {
	return s.db.Save(task).Error
}

func (s *GormStore) GetTask(id uuid.UUID) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	if err := s.db.First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "task")
	}
	return &task, nil
}

func (s *GormStore) ListTasks(instanceID uuid.UUID) ([]domain.ScheduledTask, error) {
	var tasks []domain.ScheduledTask
	if err := s.db.Where("instance_id = ?", instanceID).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *GormStore) ListEnabledTasks() ([]domain.ScheduledTask, error) {
	var tasks []domain.ScheduledTask
	if err := s.db.Where("enabled = ?", true).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *GormStore) UpdateTaskRuns(id uuid.UUID, lastRun, nextRun *time.Time) error {
	return s.db.Model(&domain.ScheduledTask{}).Where("id = ?", id).
		Updates(map[string]any{"last_run": lastRun, "next_run": nextRun}).Error
}

func (s *GormStore) UpdateTask(id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return domain.Errorf(domain.KindValidation, "no fields to update")
	}
	res := s.db.Model(&domain.ScheduledTask{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "task not found")
	}
	return nil
}

func (s *GormStore) DeleteTask(id uuid.UUID) error {
	res := s.db.Delete(&domain.ScheduledTask{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "task not found")
	}
	return nil
}

// Backups

func (s *GormStore) SaveBackup(b *domain.Backup) error {
	return s.db.Create(b).Error
}

func (s *GormStore) GetBackup(id uuid.UUID) (*domain.Backup, error) {
	var b domain.Backup
	if err := s.db.First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "backup")
	}
	return &b, nil
}

func (s *GormStore) ListBackups(instanceID uuid.UUID) ([]domain.Backup, error) {
	var backups []domain.Backup
	if err := s.db.Where("instance_id = ?", instanceID).Order("created_at desc").Find(&backups).Error; err != nil {
		return nil, err
	}
	return backups, nil
}

func (s *GormStore) DeleteBackup(id uuid.UUID) error {
	res := s.db.Delete(&domain.Backup{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "backup not found")
	}
	return nil
}

// Config profiles

func (s *GormStore) SaveProfile(p *domain.ConfigProfile) error {
	return s.db.Save(p).Error
}

func (s *GormStore) GetProfile(id uuid.UUID) (*domain.ConfigProfile, error) {
	var p domain.ConfigProfile
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (s *GormStore) ListProfiles(instanceID uuid.UUID) ([]domain.ConfigProfile, error) {
	var profiles []domain.ConfigProfile
	if err := s.db.Where("instance_id = ?", instanceID).Order("created_at").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *GormStore) SetActiveProfile(instanceID, profileID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ConfigProfile{}).
			Where("instance_id = ?", instanceID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.ConfigProfile{}).
			Where("id = ? AND instance_id = ?", profileID, instanceID).
			Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Errorf(domain.KindNotFound, "profile not found")
		}
		return nil
	})
}

func (s *GormStore) DeleteProfile(id uuid.UUID) error {
	res := s.db.Delete(&domain.ConfigProfile{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.KindNotFound, "profile not found")
	}
	return nil
}

// Workshop items

func (s *GormStore) SaveWorkshopItem(item *domain.WorkshopItem) error {
	return s.db.Save(item).Error
}

func (s *GormStore) ListWorkshopItems(instanceID uuid.UUID) ([]domain.WorkshopItem, error) {
	var items []domain.WorkshopItem
	if err := s.db.Where("instance_id = ?", instanceID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) MarkWorkshopInstalled(id uuid.UUID, installed bool) error {
	return s.db.Model(&domain.WorkshopItem{}).Where("id = ?", id).Update("installed", installed).Error
}

// Benchmark results

func (s *GormStore) SaveBenchmarkResult(r *domain.BenchmarkResult) error {
	return s.db.Create(r).Error
}

func (s *GormStore) ListBenchmarkResults(instanceID uuid.UUID) ([]domain.BenchmarkResult, error) {
	var results []domain.BenchmarkResult
	if err := s.db.Where("instance_id = ?", instanceID).Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Audit log

func (s *GormStore) AppendAudit(entry *domain.AuditLog) error {
	return s.db.Create(entry).Error
}

func (s *GormStore) ListAudit(limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []domain.AuditLog
	if err := s.db.Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// App settings

func (s *GormStore) GetSetting(key string) (string, error) {
	var setting domain.AppSetting
	if err := s.db.First(&setting, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.Errorf(domain.KindNotFound, "setting not found: %s", key)
		}
		return "", err
	}
	return setting.Value, nil
}

func (s *GormStore) SetSetting(key, value string) error {
	var setting domain.AppSetting
	err := s.db.First(&setting, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(&domain.AppSetting{Key: key, Value: value}).Error
		}
		return err
	}
	return s.db.Model(&setting).Update("value", value).Error
}
