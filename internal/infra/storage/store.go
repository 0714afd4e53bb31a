package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"delta_stream/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the SQLite-backed position and fund store. The valuation engine
// consumes it read-only through domain.PositionSource / domain.FundSource;
// the write methods exist for the surrounding trading system and for tests.
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) the database at path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite driver
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Position{}, &domain.Fund{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// QueryByUser returns every position (any status) recorded for a user.
func (s *Store) QueryByUser(ctx context.Context, userID string) ([]domain.Position, error) {
	var positions []domain.Position
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("opened_at").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return positions, nil
}

// AvailableBalance returns the user's available balance; a missing fund
// record means zero, not an error.
func (s *Store) AvailableBalance(ctx context.Context, userID string) (float64, error) {
	var fund domain.Fund
	err := s.db.WithContext(ctx).First(&fund, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return fund.AvailableBalance, nil
}

// SavePosition creates or updates a position, assigning identifiers when
// absent.
func (s *Store) SavePosition(p *domain.Position) error {
	if p.PositionID == "" {
		p.PositionID = uuid.NewString()
	}
	if p.OrderID == "" {
		p.OrderID = uuid.NewString()
	}
	return s.db.Save(p).Error
}

// SaveFund creates or updates a user's fund record.
func (s *Store) SaveFund(userID string, availableBalance float64) error {
	fund := domain.Fund{
		UserID:           userID,
		AvailableBalance: availableBalance,
		UpdatedAt:        time.Now(),
	}
	return s.db.Save(&fund).Error
}

// Ping verifies the store is reachable (used by /status).
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.WithContext(ctx).DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
