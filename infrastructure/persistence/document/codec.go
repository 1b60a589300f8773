// Package document implements the persisted mind-map document: its JSON wire
// format, schema migrations and the normalization applied at load time.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// TimeFormat matches JavaScript's Date.toISOString output.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Document is the versioned envelope stored under the autosave key and
// produced by export.
type Document struct {
	Nodes     []NodeRecord `json:"nodes"`
	Version   string       `json:"version"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
}

// NodeRecord is the wire form of a node
type NodeRecord struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	Width       *float64         `json:"width,omitempty"`
	Height      *float64         `json:"height,omitempty"`
	Completed   bool             `json:"completed"`
	ParentID    *string          `json:"parentId"`
	Children    []string         `json:"children"`
	Connections []string         `json:"connections"`
	Media       []MediaRecord    `json:"media"`
	Chat        []ChatRecord     `json:"chat,omitempty"`
	Formatting  FormattingRecord `json:"formatting"`
}

// MediaRecord is the wire form of an attachment. Type selects the variant.
type MediaRecord struct {
	Type          string `json:"type"`
	URL           string `json:"url"`
	Name          string `json:"name"`
	ID            string `json:"id"`
	Size          *int64 `json:"size,omitempty"`
	LastModified  *int64 `json:"lastModified,omitempty"`
	FilePath      string `json:"filePath,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
	LinkType      string `json:"linkType,omitempty"`
}

// ChatRecord is one transcript message
type ChatRecord struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormattingRecord is the wire form of text styling
type FormattingRecord struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Underline     bool   `json:"underline"`
	Strikethrough bool   `json:"strikethrough"`
	Highlight     string `json:"highlight"`
	TextColor     string `json:"textColor"`
	FontSize      string `json:"fontSize,omitempty"`
	FontFamily    string `json:"fontFamily,omitempty"`
	Alignment     string `json:"alignment,omitempty"`
}

// FormatTime renders t in the document timestamp format
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// New builds a document from node states. createdAt is kept when non-empty,
// updatedAt is set to now.
func New(states []entities.NodeState, cfg *config.DomainConfig, createdAt string, now time.Time) *Document {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if createdAt == "" {
		createdAt = FormatTime(now)
	}
	doc := &Document{
		Nodes:     make([]NodeRecord, 0, len(states)),
		Version:   cfg.DocumentVersion,
		CreatedAt: createdAt,
		UpdatedAt: FormatTime(now),
	}
	for _, st := range states {
		doc.Nodes = append(doc.Nodes, FromState(st))
	}
	return doc
}

// Encode renders the compact JSON stored in the key-value store
func Encode(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// EncodeIndent renders the two-space indented JSON used for export files
func EncodeIndent(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Decode parses, migrates and normalizes raw document bytes. It fails with
// an invalid-document error when the input is not JSON or has no "nodes"
// array.
func Decode(data []byte, cfg *config.DomainConfig) (*Document, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, pkgerrors.NewInvalidDocumentError("document is empty")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, pkgerrors.NewInvalidDocumentError("document is not a JSON object").WithCause(err)
	}
	nodes, ok := envelope["nodes"]
	if !ok {
		return nil, pkgerrors.NewInvalidDocumentError("document has no nodes")
	}
	if trimmed := bytes.TrimSpace(nodes); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, pkgerrors.NewInvalidDocumentError("nodes must be an array")
	}

	var raw RawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, pkgerrors.NewInvalidDocumentError("document has malformed fields").WithCause(err)
	}

	if err := DefaultMigrator(cfg.DocumentVersion).Migrate(&raw, cfg.DocumentVersion); err != nil {
		return nil, pkgerrors.NewInvalidDocumentError(err.Error()).WithCause(err)
	}

	return Normalize(raw, cfg), nil
}

// FromState converts a node state to its wire form
func FromState(st entities.NodeState) NodeRecord {
	r := NodeRecord{
		ID:          st.ID.String(),
		Title:       st.Title,
		Description: st.Description,
		X:           st.Position.X,
		Y:           st.Position.Y,
		Completed:   st.Completed,
		Children:    idStrings(st.Children),
		Connections: idStrings(st.Connections),
		Media:       make([]MediaRecord, 0, len(st.Media)),
		Formatting: FormattingRecord{
			Bold:          st.Formatting.Bold,
			Italic:        st.Formatting.Italic,
			Underline:     st.Formatting.Underline,
			Strikethrough: st.Formatting.Strikethrough,
			Highlight:     string(st.Formatting.Highlight),
			TextColor:     string(st.Formatting.TextColor),
			FontSize:      string(st.Formatting.FontSize),
			FontFamily:    string(st.Formatting.FontFamily),
			Alignment:     string(st.Formatting.Alignment),
		},
	}
	if st.Size != nil {
		w, h := st.Size.Width, st.Size.Height
		r.Width, r.Height = &w, &h
	}
	if st.ParentID != nil {
		p := st.ParentID.String()
		r.ParentID = &p
	}
	for _, m := range st.Media {
		r.Media = append(r.Media, mediaRecord(m))
	}
	for _, c := range st.Chat {
		r.Chat = append(r.Chat, ChatRecord{Role: string(c.Role), Content: c.Content})
	}
	return r
}

// ToState converts a wire record to node state. Unknown media types are
// skipped. Sizes are only set when both dimensions are present.
func (r NodeRecord) ToState() (entities.NodeState, error) {
	id, err := valueobjects.NewNodeIDFromString(r.ID)
	if err != nil {
		return entities.NodeState{}, err
	}
	st := entities.NodeState{
		ID:          id,
		Position:    valueobjects.NewPoint(r.X, r.Y),
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Children:    nodeIDs(r.Children),
		Connections: nodeIDs(r.Connections),
		Media:       make([]valueobjects.Media, 0, len(r.Media)),
		Formatting:  r.Formatting.ToFormatting(),
	}
	if r.Width != nil && r.Height != nil {
		s := valueobjects.NewSize(*r.Width, *r.Height)
		st.Size = &s
	}
	if r.ParentID != nil && *r.ParentID != "" {
		p := valueobjects.MustNodeID(*r.ParentID)
		st.ParentID = &p
	}
	for _, m := range r.Media {
		media, err := m.ToMedia()
		if err != nil {
			continue
		}
		st.Media = append(st.Media, media)
	}
	st.Chat = ChatMessages(r.Chat)
	return st, nil
}

// ToFormatting converts the record to normalized formatting
func (f FormattingRecord) ToFormatting() valueobjects.Formatting {
	return valueobjects.Formatting{
		Bold:          f.Bold,
		Italic:        f.Italic,
		Underline:     f.Underline,
		Strikethrough: f.Strikethrough,
		Highlight:     valueobjects.HighlightColor(f.Highlight),
		TextColor:     valueobjects.TextColor(f.TextColor),
		FontSize:      valueobjects.FontSize(f.FontSize),
		FontFamily:    valueobjects.FontFamily(f.FontFamily),
		Alignment:     valueobjects.Alignment(f.Alignment),
	}.Normalize()
}

// ChatMessages converts records to messages, dropping unknown roles
func ChatMessages(records []ChatRecord) []valueobjects.ChatMessage {
	var out []valueobjects.ChatMessage
	for _, c := range records {
		msg := valueobjects.ChatMessage{Role: valueobjects.ChatRole(c.Role), Content: c.Content}
		if msg.Valid() {
			out = append(out, msg)
		}
	}
	return out
}

// ToMedia builds the attachment variant for the record
func (m MediaRecord) ToMedia() (valueobjects.Media, error) {
	info := valueobjects.MediaInfo{
		ID:            m.ID,
		Name:          m.Name,
		Source:        m.URL,
		FilePath:      m.FilePath,
		Size:          m.Size,
		LastModified:  m.LastModified,
		MimeType:      m.MimeType,
		ExtractedText: m.ExtractedText,
	}
	return valueobjects.NewMedia(valueobjects.MediaKind(m.Type), info, valueobjects.LinkKind(m.LinkType))
}

// States converts every record of the document to node state
func (d *Document) States() ([]entities.NodeState, error) {
	out := make([]entities.NodeState, 0, len(d.Nodes))
	for _, r := range d.Nodes {
		st, err := r.ToState()
		if err != nil {
			return nil, pkgerrors.NewInvalidDocumentError(fmt.Sprintf("node %q: %v", r.ID, err))
		}
		out = append(out, st)
	}
	return out, nil
}

func mediaRecord(m valueobjects.Media) MediaRecord {
	info := m.Info()
	r := MediaRecord{
		Type:          string(m.Kind()),
		URL:           info.Source,
		Name:          info.Name,
		ID:            info.ID,
		Size:          info.Size,
		LastModified:  info.LastModified,
		FilePath:      info.FilePath,
		MimeType:      info.MimeType,
		ExtractedText: info.ExtractedText,
	}
	if link, ok := m.(valueobjects.Link); ok {
		r.LinkType = string(link.LinkKind)
	}
	return r
}

func idStrings(ids []valueobjects.NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func nodeIDs(ids []string) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(ids))
	for _, s := range ids {
		if s == "" {
			continue
		}
		out = append(out, valueobjects.MustNodeID(s))
	}
	return out
}
