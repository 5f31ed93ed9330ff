package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/ronospace/flowiq/internal/models"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) CountUsers() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *UserRepository) FindByID(userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}

func (repo *UserRepository) UpdateDisplayName(userID uint, displayName string) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("display_name", displayName).Error
}

func (repo *UserRepository) UpdateBaseline(userID uint, cycleLength int, periodLength int, lastPeriodStart *time.Time) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"cycle_length":      cycleLength,
		"period_length":     periodLength,
		"last_period_start": lastPeriodStart,
	}).Error
}

func (repo *UserRepository) UpdateLastPeriodStart(userID uint, start time.Time) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("last_period_start", start).Error
}

func (repo *UserRepository) UpdateTelegramChatID(userID uint, chatID string) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("telegram_chat_id", chatID).Error
}

func (repo *UserRepository) ListWithTelegramChatID() ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.Where("telegram_chat_id <> ''").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) DeleteAccountAndRelatedData(userID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.DailyEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CycleRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.WearableSummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}
