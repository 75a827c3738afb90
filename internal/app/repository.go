package app

import (
	"context"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

// Every repository runs fn inside one transaction; a nested WithTx joins the
// outer one. Methods named ForUpdate lock what they return until commit.

type AvailabilityRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetAvailabilityForUpdate returns the configured buckets among dates.
	// Unconfigured dates are left out rather than reported as errors.
	GetAvailabilityForUpdate(ctx context.Context, roomType string, dates []time.Time) ([]domain.Availability, error)
	GetAvailability(ctx context.Context, roomType string, date time.Time) (domain.Availability, error)
	// ListAvailability returns buckets with from <= date < to in date order.
	ListAvailability(ctx context.Context, roomType string, from, to time.Time) ([]domain.Availability, error)
	// CreateAvailability inserts a bucket for a night that has none. It
	// reports false, leaving the stored bucket as is, when one exists.
	CreateAvailability(ctx context.Context, b domain.Availability) (bool, error)
	SaveAvailability(ctx context.Context, buckets ...domain.Availability) error
}

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error)
	ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	UpdateReservation(ctx context.Context, r domain.Reservation) error
}

type WaitlistRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetWaitlistEntry(ctx context.Context, id string) (domain.WaitlistEntry, error)
	GetWaitlistEntryForUpdate(ctx context.Context, id string) (domain.WaitlistEntry, error)
	ListWaitlist(ctx context.Context, filter domain.WaitlistFilter) ([]domain.WaitlistEntry, error)
	// CreateWaitlistEntry assigns Seq and returns the stored entry.
	CreateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error)
	UpdateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) error
}

// ReservationStore is what ReservationService needs: bookings move stock.
type ReservationStore interface {
	AvailabilityRepository
	ReservationRepository
}

// WaitlistStore is what WaitlistService needs: conversion touches all three.
type WaitlistStore interface {
	AvailabilityRepository
	ReservationRepository
	WaitlistRepository
}
