package repository

import "gorm.io/gorm"

// Set — все репозитории, привязанные к одному *gorm.DB. Внутри транзакции
// строится заново от tx, чтобы каждое чтение шло в ней же.
type Set struct {
	Events        EventRepository
	Camps         CampRepository
	Casualties    CasualtyRepository
	Tasks         TaskRepository
	Resources     ResourceRepository
	Groups        GroupRepository
	Professionals ProfessionalRepository
	Occupancy     *GormOccupancyRepository
	Audit         AuditRepository
}

func NewSet(db *gorm.DB) *Set {
	return &Set{
		Events:        NewGormEventRepository(db),
		Camps:         NewGormCampRepository(db),
		Casualties:    NewGormCasualtyRepository(db),
		Tasks:         NewGormTaskRepository(db),
		Resources:     NewGormResourceRepository(db),
		Groups:        NewGormGroupRepository(db),
		Professionals: NewGormProfessionalRepository(db),
		Occupancy:     NewGormOccupancyRepository(db),
		Audit:         NewGormAuditRepository(db),
	}
}
