package repository

import (
	bookingRepo "fundihub/database/repository/booking"
	clientRepo "fundihub/database/repository/client"
	escrowRepo "fundihub/database/repository/escrow"
	payoutRepo "fundihub/database/repository/payout"
	providerRepo "fundihub/database/repository/provider"
)

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.BookingRepository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the EscrowRepository interface and constructor.
type EscrowRepository = escrowRepo.EscrowRepository

var NewMongoEscrowRepo = escrowRepo.NewMongoEscrowRepo

// Re-export the PayoutRepository interface and constructor.
type PayoutRepository = payoutRepo.PayoutRepository

var NewMongoPayoutRepo = payoutRepo.NewMongoPayoutRepo

// Re-export the ProviderRepository interface and constructors.
type ProviderRepository = providerRepo.ProviderRepository

type ProviderSearchCriteria = providerRepo.ProviderSearchCriteria

var NewMongoProviderRepo = providerRepo.NewMongoProviderRepo

// Re-export the ClientRepository interface and constructor.
type ClientRepository = clientRepo.ClientRepository

var NewMongoClientRepo = clientRepo.NewMongoClientRepo
