package repository

import (
	bookingRepo "hireflow/database/repository/bookingRepo"
	deviceRepo "hireflow/database/repository/deviceRepo"
	escrowRepo "hireflow/database/repository/escrowRepo"
	offerRepo "hireflow/database/repository/offerRepo"
)

// Re-export the BookingRepository interface and constructors.
type BookingRepository = bookingRepo.BookingRepository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the EscrowRepository interface and constructor.
type EscrowRepository = escrowRepo.EscrowRepository

var NewMongoEscrowRepo = escrowRepo.NewMongoEscrowRepo

// Re-export the OfferRecordRepository interface and constructor.
type OfferRecordRepository = offerRepo.OfferRecordRepository

var NewMongoOfferRecordRepo = offerRepo.NewMongoOfferRecordRepo

// Re-export the DeviceRepository interface and constructor.
type DeviceRepository = deviceRepo.DeviceRepository

var NewMongoDeviceRepo = deviceRepo.NewMongoDeviceRepo
