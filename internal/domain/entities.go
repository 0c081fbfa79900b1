package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MediaType is the closed set of catalog categories.
type MediaType string

const (
	TypeMovie     MediaType = "MOVIE"
	TypeSeries    MediaType = "SERIES"
	TypeAnime     MediaType = "ANIME"
	TypeBook      MediaType = "BOOK"
	TypeComic     MediaType = "COMIC"
	TypeManga     MediaType = "MANGA"
	TypeManhwa    MediaType = "MANHWA"
	TypeManhua    MediaType = "MANHUA"
	TypeWebtoon   MediaType = "WEBTOON"
	TypeDonghua   MediaType = "DONGHUA"
	TypeAeni      MediaType = "AENI"
	TypeAnimation MediaType = "ANIMATION"
	TypeHentai    MediaType = "HENTAI"
	TypeGame      MediaType = "GAME"
	TypePerson    MediaType = "PERSON"
	TypeFranchise MediaType = "FRANCHISE"
	TypePornstar  MediaType = "PORNSTAR"
)

// AllMediaTypes lists every valid category in display order.
var AllMediaTypes = []MediaType{
	TypeMovie, TypeSeries, TypeAnime, TypeBook, TypeComic, TypeManga,
	TypeManhwa, TypeManhua, TypeWebtoon, TypeDonghua, TypeAeni, TypeAnimation,
	TypeHentai, TypeGame, TypePerson, TypeFranchise, TypePornstar,
}

// Valid reports whether t is one of the known categories.
func (t MediaType) Valid() bool {
	for _, known := range AllMediaTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Family groups categories that share a metadata schema.
type Family int

const (
	FamilyGeneric Family = iota
	FamilyScreen         // studio-produced animation
	FamilySerial         // illustrated serials
	FamilyPerformer
)

// Family returns the schema family of the category.
func (t MediaType) Family() Family {
	switch t {
	case TypeDonghua, TypeAeni, TypeAnimation, TypeHentai:
		return FamilyScreen
	case TypeManhwa, TypeManhua, TypeWebtoon:
		return FamilySerial
	case TypePornstar:
		return FamilyPerformer
	default:
		return FamilyGeneric
	}
}

// CatalogRecord is one item in the library. The record store owns it.
type CatalogRecord struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Type       MediaType      `json:"type"`
	Synopsis   string         `json:"synopsis"`
	Keywords   []string       `json:"keywords"`
	Metadata   map[string]any `json:"metadata"`
	Notes      *string        `json:"notes"`
	CoverImage *string        `json:"coverImage"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Validate checks the fields required before a record may be stored.
func (r CatalogRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if r.Type == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(r.Synopsis) == "" {
		missing = append(missing, "synopsis")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "missing required fields"}
	}
	if !r.Type.Valid() {
		return &ValidationError{Fields: []string{"type"}, Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}
	return nil
}

// Normalize fills collection defaults so stored records never carry nil slices or maps.
func (r *CatalogRecord) Normalize() {
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
}

// RecordPatch is a partial update. Nil fields are left unchanged.
type RecordPatch struct {
	Title      *string         `json:"title,omitempty"`
	Type       *MediaType      `json:"type,omitempty"`
	Synopsis   *string         `json:"synopsis,omitempty"`
	Keywords   *[]string       `json:"keywords,omitempty"`
	Metadata   *map[string]any `json:"metadata,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
	CoverImage *string         `json:"coverImage,omitempty"`
}

// Apply writes the patch onto r and reports whether an embeddable field changed.
func (p RecordPatch) Apply(r *CatalogRecord) (contentChanged bool) {
	if p.Title != nil {
		r.Title = *p.Title
		contentChanged = true
	}
	if p.Type != nil {
		r.Type = *p.Type
		contentChanged = true
	}
	if p.Synopsis != nil {
		r.Synopsis = *p.Synopsis
		contentChanged = true
	}
	if p.Keywords != nil {
		r.Keywords = *p.Keywords
		contentChanged = true
	}
	if p.Metadata != nil {
		r.Metadata = *p.Metadata
		contentChanged = true
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
	if p.CoverImage != nil {
		r.CoverImage = p.CoverImage
	}
	r.Normalize()
	return contentChanged
}

// SortOrder selects the list ordering.
type SortOrder string

const (
	SortCreatedDesc SortOrder = "createdAt"
	SortTitleAsc    SortOrder = "title"
)

// ListFilter narrows a record listing.
type ListFilter struct {
	TitleContains string
	Type          MediaType // empty = all types
	Sort          SortOrder
}

// IndexEntry is one vector stored in the index, keyed 1:1 with a record id.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
	Document string
}

// RankedHit is a nearest-neighbour result. Distance 0 means identical.
type RankedHit struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// ScoredRecord is a hydrated hit.
type ScoredRecord struct {
	Record   CatalogRecord
	Distance float64
}

// SearchResult is a ranked, explained record as returned to callers.
type SearchResult struct {
	CatalogRecord
	Explanation    string  `json:"explanation"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// SearchOutcome is one search execution. Degraded marks answers assembled
// while a provider was failing: a zero query embedding or fallback
// explanations. They are served but never cached.
type SearchOutcome struct {
	Results  []SearchResult
	Degraded bool
}

// RestoreFailure describes one backup item that could not be restored.
type RestoreFailure struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// RestoreResult summarizes a bulk restore.
type RestoreResult struct {
	Inserted int              `json:"count"`
	Failed   []RestoreFailure `json:"failed,omitempty"`
}

// ImportFailure describes one bulk-import item that was not added.
type ImportFailure struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// ImportResult summarizes a bulk import. Unlike a restore it never wipes.
type ImportResult struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Errors       []ImportFailure `json:"errors,omitempty"`
}

// ValidationError reports a rejected record.
type ValidationError struct {
	Fields []string
	Reason string
}

// ErrInvalidRecord is matched by every ValidationError.
var ErrInvalidRecord = errors.New("invalid record")

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}
