package db

import (
	"github.com/ronospace/flowiq/internal/models"
	"gorm.io/gorm"
)

type CycleRepository struct {
	database *gorm.DB
}

func NewCycleRepository(database *gorm.DB) *CycleRepository {
	return &CycleRepository{database: database}
}

func (repo *CycleRepository) ListByUser(userID uint) ([]models.CycleRecord, error) {
	records := make([]models.CycleRecord, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("start_date ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (repo *CycleRepository) FindLatestByUser(userID uint) (models.CycleRecord, bool, error) {
	record := models.CycleRecord{}
	result := repo.database.
		Where("user_id = ?", userID).
		Order("start_date DESC, id DESC").
		Limit(1).
		Find(&record)
	if result.Error != nil {
		return models.CycleRecord{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.CycleRecord{}, false, nil
	}
	return record, true, nil
}

func (repo *CycleRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	if err := repo.database.Model(&models.CycleRecord{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *CycleRepository) Create(record *models.CycleRecord) error {
	return repo.database.Create(record).Error
}

func (repo *CycleRepository) Save(record *models.CycleRecord) error {
	return repo.database.Save(record).Error
}
