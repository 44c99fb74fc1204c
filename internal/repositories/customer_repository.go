package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models/db_models"
)

type CustomerRepository interface {
	// Upsert inserts or refreshes the customer keyed by document and loads the stored row into c.
	Upsert(ctx context.Context, tx *gorm.DB, c *db_models.Customer) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Upsert(ctx context.Context, tx *gorm.DB, c *db_models.Customer) error {
	db := conn(r.db, tx).WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "updated_at"}),
	}).Create(c).Error
	if err != nil {
		return err
	}

	// on conflict the generated id is not the stored one
	var stored db_models.Customer
	if err := db.Unscoped().First(&stored, "document = ?", c.Document).Error; err != nil {
		return err
	}
	*c = stored
	return nil
}
