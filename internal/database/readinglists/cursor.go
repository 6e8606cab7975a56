package readinglists

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SortBy selects the primary sort column of a listing.
type SortBy string

const (
	SortByName    SortBy = "name"
	SortByUpdated SortBy = "updated"
)

// Direction is the sort direction of the primary column. The id tie-break
// is always ascending; only the primary column reverses.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

const (
	// DefaultPageLimit is used when the caller does not request a limit.
	DefaultPageLimit = 10
	// MaxPageLimit caps a single page.
	MaxPageLimit = 100
)

// ParseSortBy maps a request parameter to a SortBy. Empty means name.
func ParseSortBy(s string) (SortBy, error) {
	switch s {
	case "", string(SortByName):
		return SortByName, nil
	case string(SortByUpdated):
		return SortByUpdated, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// ParseDirection maps a request parameter to a Direction. Empty means asc.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", string(Ascending):
		return Ascending, nil
	case string(Descending):
		return Descending, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Cursor marks the position of the last row a page returned, tagged by the
// sort that produced it. By is empty for plain id cursors.
type Cursor struct {
	By      SortBy
	Name    string
	Updated time.Time
	ID      int64
}

const (
	cursorTagName    = "name"
	cursorTagUpdated = "updated"
	cursorTagID      = "id"
)

// Encode renders the cursor as an opaque string token. The payload is
// escaped fields joined by "|", base64url-encoded so clients treat it as
// one word.
func (c Cursor) Encode() string {
	var parts []string
	switch c.By {
	case SortByName:
		parts = []string{cursorTagName, url.QueryEscape(c.Name), strconv.FormatInt(c.ID, 10)}
	case SortByUpdated:
		parts = []string{cursorTagUpdated, c.Updated.UTC().Format(time.RFC3339Nano), strconv.FormatInt(c.ID, 10)}
	default:
		parts = []string{cursorTagID, strconv.FormatInt(c.ID, 10)}
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, "|")))
}

// DecodeCursor parses a token produced by Encode. Returns ErrBadCursor for
// anything else.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	parts := strings.Split(string(raw), "|")
	switch parts[0] {
	case cursorTagName:
		if len(parts) != 3 {
			return Cursor{}, ErrBadCursor
		}
		name, err := url.QueryUnescape(parts[1])
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		return Cursor{By: SortByName, Name: name, ID: id}, nil
	case cursorTagUpdated:
		if len(parts) != 3 {
			return Cursor{}, ErrBadCursor
		}
		ts, err := time.Parse(time.RFC3339Nano, parts[1])
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		return Cursor{By: SortByUpdated, Updated: ts, ID: id}, nil
	case cursorTagID:
		if len(parts) != 2 {
			return Cursor{}, ErrBadCursor
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		return Cursor{ID: id}, nil
	}
	return Cursor{}, ErrBadCursor
}

// PageOptions is the shared pagination contract of all listing operations.
type PageOptions struct {
	SortBy SortBy
	Dir    Direction
	Limit  int
	// Cursor is the Next token of the previous page, empty for the first.
	Cursor string
}

func (o PageOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultPageLimit
	case o.Limit > MaxPageLimit:
		return MaxPageLimit
	}
	return o.Limit
}

// pageColumns names the (possibly table-qualified) columns a keyset page
// sorts and filters on.
type pageColumns struct {
	name    string
	updated string
	id      string
}

// orderClause builds the ORDER BY for a keyset page. Only the primary
// column follows dir; id always ascends so ties page deterministically.
func (c pageColumns) orderClause(by SortBy, dir Direction) string {
	col := c.name
	if by == SortByUpdated {
		col = c.updated
	}
	d := "ASC"
	if dir == Descending {
		d = "DESC"
	}
	return fmt.Sprintf("%s %s, %s ASC", col, d, c.id)
}

// applyCursor narrows q to rows strictly after cur under the given sort.
func (c pageColumns) applyCursor(q *gorm.DB, cur Cursor, by SortBy, dir Direction) (*gorm.DB, error) {
	if cur.By != by {
		return nil, ErrBadCursor
	}
	cmp := ">"
	if dir == Descending {
		cmp = "<"
	}
	switch by {
	case SortByName:
		cond := fmt.Sprintf("%s %s ? OR (%s = ? AND %s > ?)", c.name, cmp, c.name, c.id)
		return q.Where(cond, cur.Name, cur.Name, cur.ID), nil
	case SortByUpdated:
		cond := fmt.Sprintf("%s %s ? OR (%s = ? AND %s > ?)", c.updated, cmp, c.updated, c.id)
		return q.Where(cond, cur.Updated, cur.Updated, cur.ID), nil
	}
	return nil, ErrBadCursor
}
