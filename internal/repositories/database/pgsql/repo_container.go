package pgsql

import (
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		RateRepo:   newPgxRateRepository(dbPool),
		SourceRepo: newPgxSourceRepository(dbPool),
		CityRepo:   newPgxCityRepository(dbPool),
	}
}
