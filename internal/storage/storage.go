// Package storage builds the repositories and transaction manager for the
// configured store backend.
package storage

import (
	"fmt"

	bookingsrepo "blackyoga/internal/bookings/repository"
	classesrepo "blackyoga/internal/classes/repository"
	pointsrepo "blackyoga/internal/points/repository"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db"
	fsdb "blackyoga/pkg/db/firestore"
	"blackyoga/pkg/db/memory"
	mongotx "blackyoga/pkg/db/mongo"
)

// Storage holds every repository bound to a single backend. All of them share
// the backend's transaction manager.
type Storage struct {
	Users    usersrepo.UserRepository
	Points   pointsrepo.PointsRepository
	Classes  classesrepo.ClassRepository
	Bookings bookingsrepo.BookingRepository
	Claims   bookingsrepo.ClaimRepository
	Tx       db.TransactionManager
	Pinger   db.Pinger
	Backend  string
}

// New expects cfg.SetStore to have connected the client for the firestore and
// mongo backends.
func New(cfg *config.Config) (*Storage, error) {
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		if cfg.Client.Firestore == nil {
			return nil, fmt.Errorf("firestore client is not connected")
		}
		return &Storage{
			Users:    usersrepo.NewFirestoreUserRepository(cfg),
			Points:   pointsrepo.NewFirestorePointsRepository(cfg),
			Classes:  classesrepo.NewFirestoreClassRepository(cfg),
			Bookings: bookingsrepo.NewFirestoreBookingRepository(cfg),
			Claims:   bookingsrepo.NewFirestoreClaimRepository(cfg),
			Tx:       fsdb.NewTransactionManager(cfg.Client.Firestore),
			Pinger:   fsdb.NewPinger(cfg.Client.Firestore),
			Backend:  config.StoreFirestore,
		}, nil

	case config.StoreMongo:
		if cfg.Client.Mongo == nil {
			return nil, fmt.Errorf("mongo client is not connected")
		}
		return &Storage{
			Users:    usersrepo.NewMongoUserRepository(cfg),
			Points:   pointsrepo.NewMongoPointsRepository(cfg),
			Classes:  classesrepo.NewMongoClassRepository(cfg),
			Bookings: bookingsrepo.NewMongoBookingRepository(cfg),
			Claims:   bookingsrepo.NewMongoClaimRepository(cfg),
			Tx:       mongotx.NewTransactionManager(cfg.Client.Mongo),
			Pinger:   mongotx.NewPinger(cfg.Client.Mongo),
			Backend:  config.StoreMongo,
		}, nil

	case config.StoreMemory:
		return NewMemory(memory.NewStore()), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// NewMemory binds every repository to store. Data lives only as long as the
// process.
func NewMemory(store *memory.Store) *Storage {
	return &Storage{
		Users:    usersrepo.NewMemoryUserRepository(store),
		Points:   pointsrepo.NewMemoryPointsRepository(store),
		Classes:  classesrepo.NewMemoryClassRepository(store),
		Bookings: bookingsrepo.NewMemoryBookingRepository(store),
		Claims:   bookingsrepo.NewMemoryClaimRepository(store),
		Tx:       store,
		Pinger:   store,
		Backend:  config.StoreMemory,
	}
}
