// Package main: Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB'yi alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/akinalp/votespace/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	User         repository.UserRepository
	Session      repository.SessionRepository
	Confirmation repository.EmailConfirmationRepository
	Poll         repository.PollRepository
	Option       repository.OptionRepository
	Vote         repository.VoteRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
// sql.DB thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Session:      repository.NewSQLiteSessionRepo(conn),
		Confirmation: repository.NewSQLiteEmailConfirmationRepo(conn),
		Poll:         repository.NewSQLitePollRepo(conn),
		Option:       repository.NewSQLiteOptionRepo(conn),
		Vote:         repository.NewSQLiteVoteRepo(conn),
	}
}
