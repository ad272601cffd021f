package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	PlaceholderImage       = "miscellaneous/placeholder.png"
	PlaceholderDescription = "No description available."
	PlaceholderURL         = "https://github.com/willcagas/wastebuster-public-database"
)

// IdeaCategoryVideos marks ideas whose URL is a YouTube video.
const IdeaCategoryVideos = "Videos"

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// DisplayImage prefers the video thumbnail for video ideas, then the idea's
// own image, then the placeholder.
func (i Idea) DisplayImage() string {
	if strings.EqualFold(i.Category, IdeaCategoryVideos) {
		if thumb := YouTubeThumbnail(i.URL); thumb != "" {
			return thumb
		}
	}
	return orDefault(i.Image, PlaceholderImage)
}

func (i Idea) DisplayDescription() string { return orDefault(i.Description, PlaceholderDescription) }

func (i Idea) DisplayURL() string { return orDefault(i.URL, PlaceholderURL) }

func (e Event) DisplayImage() string { return orDefault(e.Image, PlaceholderImage) }

func (e Event) DisplayDescription() string { return orDefault(e.Description, PlaceholderDescription) }

func (e Event) DisplayURL() string { return orDefault(e.URL, PlaceholderURL) }

// YouTubeThumbnail returns the preview image for a YouTube watch or short
// link, or "" when rawURL names no video.
func YouTubeThumbnail(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	id := u.Query().Get("v")
	if id == "" && strings.EqualFold(u.Hostname(), "youtu.be") {
		id = strings.Trim(u.Path, "/")
	}
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + url.PathEscape(id) + "/0.jpg"
}

// postalSuffixLen is the length of the ", A1A 1A1"-style tail the places
// dataset appends to addresses, minus the leading comma.
const postalSuffixLen = 8

// DisplayAddress drops the trailing postal code and collapses whitespace.
func (p Place) DisplayAddress() string {
	addr := p.Address
	if n := utf8.RuneCountInString(addr); n > postalSuffixLen {
		runes := []rune(addr)
		addr = string(runes[:n-postalSuffixLen])
	}
	return strings.Join(strings.Fields(addr), " ")
}

var categoryImages = map[string]bool{
	"appliances":         true,
	"bicycles":           true,
	"books":              true,
	"cars":               true,
	"ecofriendly":        true,
	"electronics":        true,
	"fillery":            true,
	"food":               true,
	"footwear":           true,
	"furniture":          true,
	"hazardousmaterials": true,
	"metals":             true,
	"office":             true,
	"plastics":           true,
	"sports":             true,
	"textiles":           true,
	"tools":              true,
	"toys":               true,
}

// CategoryImage maps a category name to its icon. Unknown names get the
// placeholder.
func CategoryImage(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if categoryImages[key] {
		return "category_images/" + key + ".png"
	}
	return PlaceholderImage
}

func (c Category) DisplayImage() string {
	if c.Image != "" {
		return c.Image
	}
	return CategoryImage(c.Name)
}
