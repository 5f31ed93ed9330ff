package db

import (
	"time"

	"github.com/ronospace/flowiq/internal/models"
	"gorm.io/gorm"
)

type WearableRepository struct {
	database *gorm.DB
}

func NewWearableRepository(database *gorm.DB) *WearableRepository {
	return &WearableRepository{database: database}
}

func (repo *WearableRepository) ListByUser(userID uint) ([]models.WearableSummary, error) {
	summaries := make([]models.WearableSummary, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (repo *WearableRepository) FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.WearableSummary, bool, error) {
	summary := models.WearableSummary{}
	result := repo.database.
		Where("user_id = ? AND date >= ? AND date < ?", userID, dayStart, dayEnd).
		Order("date DESC, id DESC").
		Limit(1).
		Find(&summary)
	if result.Error != nil {
		return models.WearableSummary{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.WearableSummary{}, false, nil
	}
	return summary, true, nil
}

func (repo *WearableRepository) Create(summary *models.WearableSummary) error {
	return repo.database.Create(summary).Error
}

func (repo *WearableRepository) Save(summary *models.WearableSummary) error {
	return repo.database.Save(summary).Error
}
