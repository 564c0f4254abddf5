package db

import (
	"gorm.io/gorm"
)

// Repositories provides access to all database repositories.
// A set is bound either to the connection pool or to one open transaction;
// sets bound to a transaction are the request-scoped handle passed to the
// playlist, device and video components.
type Repositories struct {
	Users       *UserRepository
	Devices     *DeviceRepository
	Playlists   *PlaylistRepository
	Videos      *VideoRepository
	Memberships *MembershipRepository
	Assignments *AssignmentRepository

	conn   *gorm.DB
	driver string
}

// NewRepositories creates a new repository collection bound to the pool
func NewRepositories(db *DB) *Repositories {
	return NewRepositoriesFor(db.DB, db.driver)
}

// NewRepositoriesFor creates a repository collection on an arbitrary gorm handle,
// typically a transaction
func NewRepositoriesFor(conn *gorm.DB, driver string) *Repositories {
	return &Repositories{
		Users:       &UserRepository{conn: conn},
		Devices:     &DeviceRepository{conn: conn},
		Playlists:   &PlaylistRepository{conn: conn},
		Videos:      &VideoRepository{conn: conn},
		Memberships: &MembershipRepository{conn: conn},
		Assignments: &AssignmentRepository{conn: conn},
		conn:        conn,
		driver:      driver,
	}
}

// WithTx returns a copy of the collection bound to tx
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositoriesFor(tx, r.driver)
}
