package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirlineRepository implements the AirlineRepository interface
type GormAirlineRepository struct {
	db *gorm.DB
}

// NewGormAirlineRepository creates a new GORM airline repository
func NewGormAirlineRepository(db *gorm.DB) (repository.AirlineRepository, error) {
	if err := db.AutoMigrate(&Airlines{}); err != nil {
		return nil, fmt.Errorf("failed to migrate airlines: %w", err)
	}
	return &GormAirlineRepository{
		db: db,
	}, nil
}

// Airlines GORM model for database mapping
type Airlines struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"column:code;uniqueIndex"`
	Name      string `gorm:"column:name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airlines) TableName() string {
	return "airlines"
}

// GetByCode finds an airline by operator code
func (r *GormAirlineRepository) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	var airline Airlines
	result := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&airline)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("airline %s: %w", code, entity.ErrNotFound)
	}
	if result.Error != nil {
		return nil, result.Error
	}

	// Convert GORM model to domain entity
	return &entity.Airline{
		Code: airline.Code,
		Name: airline.Name,
	}, nil
}
