package services

import "github.com/nimeshabuddhika/garmentix-payments/pkg/database"

// Store is satisfied by *database.DB: plain reads go through Querier, multi-write flows through WithTransaction.
type Store interface {
	database.Querier
	database.Transactor
}
