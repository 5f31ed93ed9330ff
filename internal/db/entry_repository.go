package db

import (
	"time"

	"github.com/ronospace/flowiq/internal/models"
	"gorm.io/gorm"
)

type EntryRepository struct {
	database *gorm.DB
}

func NewEntryRepository(database *gorm.DB) *EntryRepository {
	return &EntryRepository{database: database}
}

func (repo *EntryRepository) ListByUser(userID uint) ([]models.DailyEntry, error) {
	entries := make([]models.DailyEntry, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *EntryRepository) ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyEntry, error) {
	query := repo.database.Model(&models.DailyEntry{}).Where("user_id = ?", userID)
	if fromStart != nil {
		query = query.Where("date >= ?", *fromStart)
	}
	if toEnd != nil {
		query = query.Where("date < ?", *toEnd)
	}

	entries := make([]models.DailyEntry, 0)
	if err := query.Order("date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *EntryRepository) FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.DailyEntry, bool, error) {
	entry := models.DailyEntry{}
	result := repo.database.
		Where("user_id = ? AND date >= ? AND date < ?", userID, dayStart, dayEnd).
		Order("date DESC, id DESC").
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return models.DailyEntry{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.DailyEntry{}, false, nil
	}
	return entry, true, nil
}

func (repo *EntryRepository) Create(entry *models.DailyEntry) error {
	return repo.database.Create(entry).Error
}

func (repo *EntryRepository) Save(entry *models.DailyEntry) error {
	return repo.database.Save(entry).Error
}

func (repo *EntryRepository) DeleteByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) error {
	return repo.database.Where("user_id = ? AND date >= ? AND date < ?", userID, dayStart, dayEnd).Delete(&models.DailyEntry{}).Error
}
