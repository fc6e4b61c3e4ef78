package structure

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrStructureNotFound        = errors.New("salary structure not found")
	ErrDuplicateNameOrCode      = errors.New("salary structure name or code already exists")
	ErrOverlappingRange         = errors.New("effective range overlaps an existing version")
	ErrInvertedRange            = errors.New("effective_to must be after effective_from")
	ErrRangeGap                 = errors.New("effective range leaves a gap in the version timeline")
	ErrUnresolvedBaseReference  = errors.New("component references a component that is not resolved before it")
	ErrInvalidFormula           = errors.New("invalid component formula")
	ErrPayComponentNotFound     = errors.New("pay component not found")
	ErrPayComponentCodeExists   = errors.New("pay component code already exists")
	ErrDuplicateComponent       = errors.New("pay component appears more than once in structure")
	ErrInvalidComponentSettings = errors.New("invalid structure component settings")
)

// OverlapError names the existing version a requested range collides with.
type OverlapError struct {
	ConflictID      string
	ConflictVersion int
	ConflictRange   DateRange
	Requested       DateRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: requested %s overlaps version %d (%s) %s",
		ErrOverlappingRange.Error(), e.Requested, e.ConflictVersion, e.ConflictID, e.ConflictRange)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRange }

// GapError names the neighbouring version that a requested range fails to meet.
type GapError struct {
	NeighbourID    string
	NeighbourRange DateRange
	Requested      DateRange
	GapFrom        time.Time
	GapTo          time.Time
}

func (e *GapError) Error() string {
	return fmt.Sprintf("%s: requested %s leaves [%s, %s) uncovered next to version %s %s",
		ErrRangeGap.Error(), e.Requested, e.GapFrom.Format("2006-01-02"), e.GapTo.Format("2006-01-02"),
		e.NeighbourID, e.NeighbourRange)
}

func (e *GapError) Unwrap() error { return ErrRangeGap }

// ReferenceError names a component whose base or formula points at something
// that has not been evaluated yet.
type ReferenceError struct {
	Component string
	Reference string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s references %s", ErrUnresolvedBaseReference.Error(), e.Component, e.Reference)
}

func (e *ReferenceError) Unwrap() error { return ErrUnresolvedBaseReference }
