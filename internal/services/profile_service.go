package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ronospace/flowiq/internal/models"
)

var (
	ErrInvalidDisplayName  = errors.New("invalid display name")
	ErrInvalidCycleLength  = errors.New("invalid cycle length")
	ErrInvalidPeriodLength = errors.New("invalid period length")
	ErrInvalidTimeZone     = errors.New("invalid time zone")
	ErrNothingToUpdate     = errors.New("nothing to update")
	ErrLoadProfile         = errors.New("load profile failed")
	ErrProfileSaveFailed   = errors.New("save profile failed")
	ErrProfileDeleteFailed = errors.New("delete profile failed")
)

type ProfileStore interface {
	CountUsers() (int64, error)
	FindByID(userID uint) (models.User, error)
	Create(user *models.User) error
	UpdateDisplayName(userID uint, displayName string) error
	UpdateBaseline(userID uint, cycleLength int, periodLength int, lastPeriodStart *time.Time) error
	UpdateTelegramChatID(userID uint, chatID string) error
	DeleteAccountAndRelatedData(userID uint) error
}

type ProfileCycleCounter interface {
	CountByUser(userID uint) (int64, error)
}

// NewProfileInput describes a profile to provision. Zero lengths fall back to
// the bundled defaults; an empty time zone means UTC.
type NewProfileInput struct {
	DisplayName     string
	TimeZone        string
	CycleLength     int
	PeriodLength    int
	LastPeriodStart *time.Time
	TelegramChatID  string
}

// ProfileChanges carries a partial update. Nil fields are left untouched; a
// pointer to an empty chat ID unlinks the Telegram target.
type ProfileChanges struct {
	DisplayName     *string
	CycleLength     *int
	PeriodLength    *int
	LastPeriodStart *time.Time
	TelegramChatID  *string
}

// ProfileService provisions and maintains tracking profiles. Identity and
// credentials live in the external auth system; this only manages the row the
// engine and the notifier read.
type ProfileService struct {
	users  ProfileStore
	cycles ProfileCycleCounter
}

func NewProfileService(users ProfileStore, cycles ProfileCycleCounter) *ProfileService {
	return &ProfileService{users: users, cycles: cycles}
}

// CreateProfile validates and persists a fresh profile. The bool reports
// whether this is the first profile in the store.
func (service *ProfileService) CreateProfile(input NewProfileInput) (models.User, bool, error) {
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return models.User{}, false, ErrInvalidDisplayName
	}

	timeZone := strings.TrimSpace(input.TimeZone)
	if timeZone == "" {
		timeZone = "UTC"
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		return models.User{}, false, fmt.Errorf("%w: %q", ErrInvalidTimeZone, timeZone)
	}

	cycleLength := input.CycleLength
	if cycleLength == 0 {
		cycleLength = models.DefaultCycleLength
	}
	if !models.IsValidBaselineCycleLength(cycleLength) {
		return models.User{}, false, fmt.Errorf("%w: %d", ErrInvalidCycleLength, cycleLength)
	}
	periodLength := input.PeriodLength
	if periodLength == 0 {
		periodLength = models.DefaultPeriodLength
	}
	if !models.IsValidBaselinePeriodLength(periodLength) {
		return models.User{}, false, fmt.Errorf("%w: %d", ErrInvalidPeriodLength, periodLength)
	}

	existing, err := service.users.CountUsers()
	if err != nil {
		return models.User{}, false, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
	}

	user := models.User{
		DisplayName:     displayName,
		TimeZone:        timeZone,
		CycleLength:     cycleLength,
		PeriodLength:    periodLength,
		LastPeriodStart: input.LastPeriodStart,
		TelegramChatID:  strings.TrimSpace(input.TelegramChatID),
	}
	if err := service.users.Create(&user); err != nil {
		return models.User{}, false, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
	}
	return user, existing == 0, nil
}

// UpdateProfile applies the provided changes and returns the resulting
// profile. Unspecified baseline fields keep their stored values.
func (service *ProfileService) UpdateProfile(userID uint, changes ProfileChanges) (models.User, error) {
	if changes.DisplayName == nil && changes.CycleLength == nil && changes.PeriodLength == nil &&
		changes.LastPeriodStart == nil && changes.TelegramChatID == nil {
		return models.User{}, ErrNothingToUpdate
	}

	user, err := service.loadProfile(userID)
	if err != nil {
		return models.User{}, err
	}

	if changes.DisplayName != nil {
		displayName := strings.TrimSpace(*changes.DisplayName)
		if displayName == "" {
			return models.User{}, ErrInvalidDisplayName
		}
		if err := service.users.UpdateDisplayName(userID, displayName); err != nil {
			return models.User{}, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
		}
		user.DisplayName = displayName
	}

	if changes.CycleLength != nil || changes.PeriodLength != nil || changes.LastPeriodStart != nil {
		cycleLength := user.CycleLength
		if changes.CycleLength != nil {
			if !models.IsValidBaselineCycleLength(*changes.CycleLength) {
				return models.User{}, fmt.Errorf("%w: %d", ErrInvalidCycleLength, *changes.CycleLength)
			}
			cycleLength = *changes.CycleLength
		}
		periodLength := user.PeriodLength
		if changes.PeriodLength != nil {
			if !models.IsValidBaselinePeriodLength(*changes.PeriodLength) {
				return models.User{}, fmt.Errorf("%w: %d", ErrInvalidPeriodLength, *changes.PeriodLength)
			}
			periodLength = *changes.PeriodLength
		}
		lastPeriodStart := user.LastPeriodStart
		if changes.LastPeriodStart != nil {
			lastPeriodStart = changes.LastPeriodStart
		}
		if err := service.users.UpdateBaseline(userID, cycleLength, periodLength, lastPeriodStart); err != nil {
			return models.User{}, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
		}
		user.CycleLength = cycleLength
		user.PeriodLength = periodLength
		user.LastPeriodStart = lastPeriodStart
	}

	if changes.TelegramChatID != nil {
		chatID := strings.TrimSpace(*changes.TelegramChatID)
		if err := service.users.UpdateTelegramChatID(userID, chatID); err != nil {
			return models.User{}, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
		}
		user.TelegramChatID = chatID
	}

	return user, nil
}

// RemoveProfile deletes the profile and every row tracked for it, returning
// the removed profile and how many cycle records went with it.
func (service *ProfileService) RemoveProfile(userID uint) (models.User, int64, error) {
	user, err := service.loadProfile(userID)
	if err != nil {
		return models.User{}, 0, err
	}

	cycleCount, err := service.cycles.CountByUser(userID)
	if err != nil {
		return models.User{}, 0, fmt.Errorf("%w: %v", ErrProfileDeleteFailed, err)
	}
	if err := service.users.DeleteAccountAndRelatedData(userID); err != nil {
		return models.User{}, 0, fmt.Errorf("%w: %v", ErrProfileDeleteFailed, err)
	}
	return user, cycleCount, nil
}

func (service *ProfileService) loadProfile(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrLoadProfile, err)
	}
	return user, nil
}
