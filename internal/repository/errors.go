// Package repository defines the persistence interfaces the parking core
// depends on, plus the sentinel errors shared across implementations.
// Handlers compare these with errors.Is and translate them into HTTP
// statuses: the *NotFound family to 404, the conflict family to 409.
package repository

import "errors"

// ErrVehicleNotFound is returned when no vehicle exists for a plate.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrSpotNotFound is returned when no spot exists at a (lat, lng) pair.
var ErrSpotNotFound = errors.New("spot not found")

// ErrSectorNotFound is returned when no sector exists for a code.
var ErrSectorNotFound = errors.New("sector not found")

// ErrNoActiveSession is returned when a PARKED or EXIT event references a
// vehicle that has no open parking session.
var ErrNoActiveSession = errors.New("no active session")

// ErrActiveSessionExists is returned when an ENTRY event arrives for a
// plate whose previous session has not been closed yet.
var ErrActiveSessionExists = errors.New("active session already exists")

// ErrSpotOccupied is returned when a PARKED event names a spot already
// held by a different active session.
var ErrSpotOccupied = errors.New("spot already occupied")
