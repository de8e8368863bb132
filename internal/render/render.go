// Package render turns a successful submission into a displayable view.
package render

import (
	"fmt"
	"net/url"
	"path"
)

// Tile is one image with its individual download link.
type Tile struct {
	Index int
	URL   string
	Name  string
	Alt   string
}

// View is the result grid plus the bulk download affordance.
type View struct {
	Tiles          []Tile
	Archive        string
	ArchiveName    string
	ArchiveEnabled bool
}

// Len returns the number of tiles.
func (v View) Len() int { return len(v.Tiles) }

// Render builds one tile per image in input order and binds the bulk
// download to archiveURL. It has no state and never reorders or filters.
func Render(images []string, archiveURL string) View {
	v := View{
		Tiles:          make([]Tile, 0, len(images)),
		Archive:        archiveURL,
		ArchiveName:    DisplayName(archiveURL),
		ArchiveEnabled: archiveURL != "",
	}
	for i, img := range images {
		v.Tiles = append(v.Tiles, Tile{
			Index: i,
			URL:   img,
			Name:  DisplayName(img),
			Alt:   fmt.Sprintf("img-%d", i),
		})
	}
	return v
}

// DisplayName returns the decoded last path segment of a resource URL, which
// is the full identifier for links built by backend.Links.
func DisplayName(resource string) string {
	if resource == "" {
		return ""
	}
	seg := resource
	if u, err := url.Parse(resource); err == nil {
		seg = path.Base(u.EscapedPath())
	}
	if decoded, err := url.PathUnescape(seg); err == nil {
		return decoded
	}
	return seg
}
