package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"payment-import-service/internal/models"
	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// Config holds the database connection settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// AutoMigrate creates missing tables on startup. Enabled by default
	// for development setups; production schemas are migrated separately.
	AutoMigrate bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the default database configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            3306,
		User:            "root",
		Database:        "payment_import",
		AutoMigrate:     true,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// Validate validates the database configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	return nil
}

// DSN builds the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// GormStore is the MySQL-backed Store implementation
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// Open connects to MySQL and optionally migrates the schema
func Open(config *Config) (*GormStore, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "database", nil, err)
	}

	db, err := gorm.Open(mysql.Open(config.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.StoreError(errors.CodeConnectionFailed, "open", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.StoreError(errors.CodeConnectionFailed, "open", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &GormStore{
		db:     db,
		logger: logger.GetGlobalLogger().WithComponent("store"),
	}

	if config.AutoMigrate {
		if err := store.migrate(); err != nil {
			return nil, err
		}
	}

	return store, nil
}

func (s *GormStore) migrate() error {
	err := s.db.AutoMigrate(
		&models.Contact{},
		&models.CardLink{},
		&models.StagingRecord{},
		&models.FinalizedRecord{},
		&models.StatusOverride{},
		&models.ImportBatch{},
		&models.OrderMapping{},
		&models.Order{},
	)
	if err != nil {
		return errors.StoreError(errors.CodeConnectionFailed, "migrate", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListContacts returns all contacts ordered by id
func (s *GormStore) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	var contacts []*models.Contact
	if err := s.db.WithContext(ctx).Order("id").Find(&contacts).Error; err != nil {
		return nil, errors.StoreError(errors.CodeQueryFailed, "list_contacts", err)
	}
	return contacts, nil
}

// ListCardLinks returns all card links ordered by id
func (s *GormStore) ListCardLinks(ctx context.Context) ([]*models.CardLink, error) {
	var links []*models.CardLink
	if err := s.db.WithContext(ctx).Order("id").Find(&links).Error; err != nil {
		return nil, errors.StoreError(errors.CodeQueryFailed, "list_card_links", err)
	}
	return links, nil
}

// SaveCardLink upserts a confirmed card-to-contact link
func (s *GormStore) SaveCardLink(ctx context.Context, link *models.CardLink) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_last4"}, {Name: "holder_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"contact_id", "updated_at"}),
	}).Create(link).Error
	if err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "save_card_link", err)
	}
	return nil
}

// GetStagingByUIDs returns staging rows for the uids, paged
func (s *GormStore) GetStagingByUIDs(ctx context.Context, provider string, uids []string) ([]*models.StagingRecord, error) {
	var out []*models.StagingRecord
	for _, page := range pages(uids) {
		var records []*models.StagingRecord
		err := s.db.WithContext(ctx).
			Where("provider = ? AND uid IN ?", provider, page).
			Find(&records).Error
		if err != nil {
			return nil, errors.StoreError(errors.CodeQueryFailed, "get_staging_by_uids", err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// InsertStaging creates a new staging row
func (s *GormStore) InsertStaging(ctx context.Context, record *models.StagingRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "insert_staging", err)
	}
	return nil
}

// UpdateStaging saves an existing staging row
func (s *GormStore) UpdateStaging(ctx context.Context, record *models.StagingRecord) error {
	if record.ID == 0 {
		return errors.StoreError(errors.CodeWriteFailed, "update_staging",
			fmt.Errorf("staging record has no id"))
	}
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "update_staging", err)
	}
	return nil
}

// DeleteStagingByBatch removes the staging rows created by one batch
func (s *GormStore) DeleteStagingByBatch(ctx context.Context, batchID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Delete(&models.StagingRecord{})
	if result.Error != nil {
		return 0, errors.StoreError(errors.CodeWriteFailed, "delete_staging_by_batch", result.Error)
	}
	return result.RowsAffected, nil
}

// GetLedgerByUIDs returns finalized rows for the uids, paged
func (s *GormStore) GetLedgerByUIDs(ctx context.Context, provider string, uids []string) ([]*models.FinalizedRecord, error) {
	var out []*models.FinalizedRecord
	for _, page := range pages(uids) {
		var records []*models.FinalizedRecord
		err := s.db.WithContext(ctx).
			Where("provider = ? AND uid IN ?", provider, page).
			Find(&records).Error
		if err != nil {
			return nil, errors.StoreError(errors.CodeQueryFailed, "get_ledger_by_uids", err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// UpsertOverride creates or refreshes the override for a provider uid
func (s *GormStore) UpsertOverride(ctx context.Context, override *models.StatusOverride) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"proposed_status", "justification", "updated_at"}),
	}).Create(override).Error
	if err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "upsert_override", err)
	}
	return nil
}

// GetOverride returns the override for a provider uid, or nil
func (s *GormStore) GetOverride(ctx context.Context, provider, uid string) (*models.StatusOverride, error) {
	var override models.StatusOverride
	err := s.db.WithContext(ctx).
		Where("provider = ? AND uid = ?", provider, uid).
		First(&override).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreError(errors.CodeQueryFailed, "get_override", err)
	}
	return &override, nil
}

// CreateBatch records a new import batch
func (s *GormStore) CreateBatch(ctx context.Context, batch *models.ImportBatch) error {
	if err := s.db.WithContext(ctx).Create(batch).Error; err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "create_batch", err)
	}
	return nil
}

// UpdateBatch saves batch progress
func (s *GormStore) UpdateBatch(ctx context.Context, batch *models.ImportBatch) error {
	if err := s.db.WithContext(ctx).Save(batch).Error; err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "update_batch", err)
	}
	return nil
}

// GetBatch returns a batch by id, or nil
func (s *GormStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&batch).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreError(errors.CodeQueryFailed, "get_batch", err)
	}
	return &batch, nil
}

// FindOrderMapping returns the active mapping for a payment description
func (s *GormStore) FindOrderMapping(ctx context.Context, description string) (*models.OrderMapping, error) {
	var mapping models.OrderMapping
	err := s.db.WithContext(ctx).
		Where("description = ? AND active = ?", description, true).
		Order("id").
		First(&mapping).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreError(errors.CodeQueryFailed, "find_order_mapping", err)
	}
	return &mapping, nil
}

// CreateOrder records an order created from an imported payment
func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.StoreError(errors.CodeWriteFailed, "create_order", err)
	}
	return nil
}
