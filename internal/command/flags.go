package command

import "github.com/gofrs/uuid/v5"

// CacheFlags records which cached division views must be dropped once the request completes.
// A nil *CacheFlags ignores every write.
type CacheFlags struct {
	EvictDivisionDataCacheForDivisionID *uuid.UUID
	EvictDivisionDataCacheForSeasonID   *uuid.UUID
}

// Eviction is the read-once view of the flags.
type Eviction struct {
	DivisionID *uuid.UUID
	SeasonID   *uuid.UUID
}

// Empty reports whether nothing needs evicting.
func (e Eviction) Empty() bool { return e.DivisionID == nil && e.SeasonID == nil }

// EvictDivision flags the division's cached data.
func (f *CacheFlags) EvictDivision(id uuid.UUID) {
	if f == nil || id == uuid.Nil {
		return
	}
	f.EvictDivisionDataCacheForDivisionID = &id
}

// EvictSeason flags the season's cached data.
func (f *CacheFlags) EvictSeason(id uuid.UUID) {
	if f == nil || id == uuid.Nil {
		return
	}
	f.EvictDivisionDataCacheForSeasonID = &id
}

// Take returns the flags and clears them.
func (f *CacheFlags) Take() Eviction {
	if f == nil {
		return Eviction{}
	}
	e := Eviction{DivisionID: f.EvictDivisionDataCacheForDivisionID, SeasonID: f.EvictDivisionDataCacheForSeasonID}
	f.EvictDivisionDataCacheForDivisionID = nil
	f.EvictDivisionDataCacheForSeasonID = nil
	return e
}
