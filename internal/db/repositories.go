package db

import "gorm.io/gorm"

type Repositories struct {
	Users     *UserRepository
	Cycles    *CycleRepository
	Entries   *EntryRepository
	Wearables *WearableRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(database),
		Cycles:    NewCycleRepository(database),
		Entries:   NewEntryRepository(database),
		Wearables: NewWearableRepository(database),
	}
}
