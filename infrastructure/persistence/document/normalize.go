package document

import (
	"mindcanvas/domain/config"
	"mindcanvas/domain/core/valueobjects"
)

// RawDocument is a stored document as read, before defaults are applied.
// Pointer fields distinguish "absent" from zero values.
type RawDocument struct {
	Nodes     []RawNode `json:"nodes"`
	Version   *string   `json:"version"`
	CreatedAt *string   `json:"createdAt"`
	UpdatedAt *string   `json:"updatedAt"`
}

// RawNode is a stored node as read
type RawNode struct {
	ID          *string        `json:"id"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	X           *float64       `json:"x"`
	Y           *float64       `json:"y"`
	Width       *float64       `json:"width"`
	Height      *float64       `json:"height"`
	Completed   *bool          `json:"completed"`
	ParentID    *string        `json:"parentId"`
	Children    []string       `json:"children"`
	Connections []string       `json:"connections"`
	Media       []MediaRecord  `json:"media"`
	Chat        []ChatRecord   `json:"chat"`
	Formatting  *RawFormatting `json:"formatting"`
}

// RawFormatting is stored formatting as read
type RawFormatting struct {
	Bold          *bool   `json:"bold"`
	Italic        *bool   `json:"italic"`
	Underline     *bool   `json:"underline"`
	Strikethrough *bool   `json:"strikethrough"`
	Highlight     *string `json:"highlight"`
	TextColor     *string `json:"textColor"`
	FontSize      *string `json:"fontSize"`
	FontFamily    *string `json:"fontFamily"`
	Alignment     *string `json:"alignment"`
}

// Normalize applies defaults to every absent field. Nodes without an id
// are dropped. Tree repair is left to the aggregate.
func Normalize(raw RawDocument, cfg *config.DomainConfig) *Document {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	doc := &Document{
		Nodes:     make([]NodeRecord, 0, len(raw.Nodes)),
		Version:   deref(raw.Version, cfg.DocumentVersion),
		CreatedAt: deref(raw.CreatedAt, ""),
		UpdatedAt: deref(raw.UpdatedAt, ""),
	}
	for _, n := range raw.Nodes {
		if n.ID == nil || *n.ID == "" {
			continue
		}
		doc.Nodes = append(doc.Nodes, normalizeNode(n, cfg))
	}
	return doc
}

func normalizeNode(n RawNode, cfg *config.DomainConfig) NodeRecord {
	r := NodeRecord{
		ID:          *n.ID,
		Title:       nonEmpty(n.Title, cfg.DefaultTitle),
		Description: nonEmpty(n.Description, cfg.DefaultDescription),
		X:           deref(n.X, 0),
		Y:           deref(n.Y, 0),
		Width:       n.Width,
		Height:      n.Height,
		Completed:   deref(n.Completed, false),
		Children:    nonNil(n.Children),
		Connections: nonNil(n.Connections),
		Media:       n.Media,
		Chat:        n.Chat,
		Formatting:  normalizeFormatting(n.Formatting),
	}
	if r.Media == nil {
		r.Media = []MediaRecord{}
	}
	if n.ParentID != nil && *n.ParentID != "" {
		p := *n.ParentID
		r.ParentID = &p
	}
	return r
}

func normalizeFormatting(f *RawFormatting) FormattingRecord {
	d := valueobjects.DefaultFormatting()
	if f == nil {
		return FormattingRecord{
			Highlight: string(d.Highlight),
			TextColor: string(d.TextColor),
		}
	}
	return FormattingRecord{
		Bold:          deref(f.Bold, false),
		Italic:        deref(f.Italic, false),
		Underline:     deref(f.Underline, false),
		Strikethrough: deref(f.Strikethrough, false),
		Highlight:     deref(f.Highlight, string(d.Highlight)),
		TextColor:     deref(f.TextColor, string(d.TextColor)),
		FontSize:      deref(f.FontSize, ""),
		FontFamily:    deref(f.FontFamily, ""),
		Alignment:     deref(f.Alignment, ""),
	}
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// nonEmpty treats an empty string like an absent one
func nonEmpty(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
