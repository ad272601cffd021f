package domain

import "strings"

// Keyword is the kind of service a place offers. The mapping from keyword to
// icon and marker colour is total: unrecognized types become KeywordUnknown,
// which has its own icon and colour.
type Keyword int

const (
	KeywordUnknown Keyword = iota
	KeywordReuse
	KeywordRecycle
	KeywordRedesign
	KeywordRepair
	KeywordRefurbish
	KeywordRemanufacture
	KeywordRecover
	KeywordResell
	KeywordRefill
	KeywordBorrow
)

type keywordInfo struct {
	name   string
	icon   string
	colour string
}

var keywords = [...]keywordInfo{
	KeywordUnknown:       {"unknown", "keyword_images/unknown.png", "#9E9E9E"},
	KeywordReuse:         {"reuse", "keyword_images/reuse.png", "#FF5733"},
	KeywordRecycle:       {"recycle", "keyword_images/recycle.png", "#2E7D32"},
	KeywordRedesign:      {"redesign", "keyword_images/redesign.png", "#CF9FFF"},
	KeywordRepair:        {"repair", "keyword_images/repair.png", "#808080"},
	KeywordRefurbish:     {"refurbish", "keyword_images/refurbish.png", "#FF768B"},
	KeywordRemanufacture: {"remanufacture", "keyword_images/remanufacture.png", "#0096FF"},
	KeywordRecover:       {"recover", "keyword_images/recover.png", "#33A1FF"},
	KeywordResell:        {"resell", "keyword_images/resell.png", "#FFC000"},
	KeywordRefill:        {"refill", "keyword_images/refill.png", "#33FF57"},
	KeywordBorrow:        {"borrow", "keyword_images/borrow.png", "#3357FF"},
}

// Keywords lists every known keyword in display order, without KeywordUnknown.
func Keywords() []Keyword {
	out := make([]Keyword, 0, len(keywords)-1)
	for k := KeywordReuse; int(k) < len(keywords); k++ {
		out = append(out, k)
	}
	return out
}

// ParseKeyword is case-insensitive and ignores surrounding whitespace.
func ParseKeyword(s string) Keyword {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, info := range keywords {
		if Keyword(k) != KeywordUnknown && info.name == s {
			return Keyword(k)
		}
	}
	return KeywordUnknown
}

func (k Keyword) info() keywordInfo {
	if k < 0 || int(k) >= len(keywords) {
		return keywords[KeywordUnknown]
	}
	return keywords[k]
}

func (k Keyword) String() string { return k.info().name }

func (k Keyword) Icon() string { return k.info().icon }

func (k Keyword) Colour() string { return k.info().colour }

func (k Keyword) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Keyword) UnmarshalText(text []byte) error {
	*k = ParseKeyword(string(text))
	return nil
}
