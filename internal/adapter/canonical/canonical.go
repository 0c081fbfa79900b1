// Package canonical renders catalog records into the text blob that gets embedded.
package canonical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"medialib/internal/domain"
)

// Text returns the canonical embedding text for rec. It is pure: identical
// records always produce byte-identical output.
func Text(rec domain.CatalogRecord) string {
	parts := []string{
		"Title: " + rec.Title,
		"Type: " + string(rec.Type),
		"Synopsis: " + rec.Synopsis,
	}

	if len(rec.Keywords) > 0 {
		parts = append(parts, "Keywords: "+strings.Join(rec.Keywords, ", "))
	}

	if clause := detailsOf(rec).clause(); clause != "" {
		parts = append(parts, clause)
	}

	return strings.Join(parts, "\n")
}

// details is the type-specific part of a record. One variant per family.
type details interface {
	clause() string
}

func detailsOf(rec domain.CatalogRecord) details {
	m := rec.Metadata
	switch rec.Type.Family() {
	case domain.FamilyPerformer:
		return performerDetails{
			stageName:   scalar(m, "stageName"),
			realName:    scalar(m, "realName"),
			nationality: scalar(m, "nationality"),
			ethnicity:   scalar(m, "ethnicity"),
			studios:     list(m, "studios"),
			genres:      list(m, "genres"),
			awards:      list(m, "awards"),
		}
	case domain.FamilySerial:
		return serialDetails{
			author:    scalar(m, "author"),
			artist:    scalar(m, "artist"),
			publisher: scalar(m, "publisher"),
			genres:    list(m, "genres"),
		}
	case domain.FamilyScreen:
		return screenDetails{
			studio:   scalar(m, "studio"),
			director: scalar(m, "director"),
			genres:   list(m, "genres"),
		}
	default:
		return genericDetails{metadata: m}
	}
}

type performerDetails struct {
	stageName, realName, nationality, ethnicity string
	studios, genres, awards                     []string
}

func (d performerDetails) clause() string {
	var c clauseBuilder
	c.field("Stage Name", d.stageName)
	c.field("Real Name", d.realName)
	c.field("Nationality", d.nationality)
	c.field("Ethnicity", d.ethnicity)
	c.list("Studios", d.studios)
	c.list("Genres", d.genres)
	c.list("Awards", d.awards)
	return c.String()
}

type serialDetails struct {
	author, artist, publisher string
	genres                    []string
}

func (d serialDetails) clause() string {
	var c clauseBuilder
	c.field("Author", d.author)
	c.field("Artist", d.artist)
	c.field("Publisher", d.publisher)
	c.list("Genres", d.genres)
	return c.String()
}

type screenDetails struct {
	studio, director string
	genres           []string
}

func (d screenDetails) clause() string {
	var c clauseBuilder
	c.field("Studio", d.studio)
	c.field("Director", d.director)
	c.list("Genres", d.genres)
	return c.String()
}

type genericDetails struct {
	metadata map[string]any
}

// clause renders every metadata key. Keys are sorted so the output does not
// depend on map iteration order.
func (d genericDetails) clause() string {
	if len(d.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d.metadata))
	for k := range d.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ": " + formatValue(d.metadata[k])
	}
	return "Metadata: " + strings.Join(pairs, ", ")
}

type clauseBuilder struct {
	parts []string
}

func (c *clauseBuilder) field(label, value string) {
	if value != "" {
		c.parts = append(c.parts, label+": "+value)
	}
}

func (c *clauseBuilder) list(label string, values []string) {
	if len(values) > 0 {
		c.parts = append(c.parts, label+": "+strings.Join(values, ", "))
	}
}

func (c *clauseBuilder) String() string {
	return strings.Join(c.parts, ", ")
}

// scalar returns the value under key, or "" when it is absent or falsy.
func scalar(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case bool:
		if !x {
			return ""
		}
	case float64:
		if x == 0 {
			return ""
		}
	case int:
		if x == 0 {
			return ""
		}
	}
	return formatValue(v)
}

// list returns the elements under key. A bare string counts as a single element.
func list(m map[string]any, key string) []string {
	switch x := m[key].(type) {
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				out[i] = formatValue(e)
			}
		}
		return out
	case []string:
		return x
	case string:
		if x != "" {
			return []string{x}
		}
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = formatValue(e)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, err := json.Marshal(x) // encoding/json sorts map keys
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
