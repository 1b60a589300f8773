package valueobjects

import "fmt"

// HighlightColor is the background highlight applied to node text
type HighlightColor string

const (
	HighlightNone   HighlightColor = "none"
	HighlightYellow HighlightColor = "yellow"
	HighlightGreen  HighlightColor = "green"
	HighlightBlue   HighlightColor = "blue"
	HighlightPink   HighlightColor = "pink"
	HighlightPurple HighlightColor = "purple"
)

// TextColor is the foreground color of node text
type TextColor string

const (
	TextDefault TextColor = "default"
	TextRed     TextColor = "red"
	TextBlue    TextColor = "blue"
	TextGreen   TextColor = "green"
	TextPurple  TextColor = "purple"
	TextOrange  TextColor = "orange"
	TextPink    TextColor = "pink"
)

// FontSize of node text
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// FontFamily of node text
type FontFamily string

const (
	FontSans  FontFamily = "sans"
	FontSerif FontFamily = "serif"
	FontMono  FontFamily = "mono"
)

// Alignment of node text
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// FormatFlag names one of the boolean text styles.
type FormatFlag string

const (
	FlagBold          FormatFlag = "bold"
	FlagItalic        FormatFlag = "italic"
	FlagUnderline     FormatFlag = "underline"
	FlagStrikethrough FormatFlag = "strikethrough"
)

// Formatting describes how a node's text is styled.
type Formatting struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Highlight     HighlightColor
	TextColor     TextColor
	FontSize      FontSize
	FontFamily    FontFamily
	Alignment     Alignment
}

// DefaultFormatting returns plain text with no highlight.
func DefaultFormatting() Formatting {
	return Formatting{
		Highlight:  HighlightNone,
		TextColor:  TextDefault,
		FontSize:   FontMedium,
		FontFamily: FontSans,
		Alignment:  AlignLeft,
	}
}

// Normalize replaces unknown enum values with their defaults.
func (f Formatting) Normalize() Formatting {
	d := DefaultFormatting()
	if !validHighlight(f.Highlight) {
		f.Highlight = d.Highlight
	}
	if !validTextColor(f.TextColor) {
		f.TextColor = d.TextColor
	}
	switch f.FontSize {
	case FontSmall, FontMedium, FontLarge:
	default:
		f.FontSize = d.FontSize
	}
	switch f.FontFamily {
	case FontSans, FontSerif, FontMono:
	default:
		f.FontFamily = d.FontFamily
	}
	switch f.Alignment {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		f.Alignment = d.Alignment
	}
	return f
}

// Toggle flips one boolean style.
func (f Formatting) Toggle(flag FormatFlag) (Formatting, error) {
	switch flag {
	case FlagBold:
		f.Bold = !f.Bold
	case FlagItalic:
		f.Italic = !f.Italic
	case FlagUnderline:
		f.Underline = !f.Underline
	case FlagStrikethrough:
		f.Strikethrough = !f.Strikethrough
	default:
		return f, fmt.Errorf("unknown format flag %q", flag)
	}
	return f, nil
}

func validHighlight(h HighlightColor) bool {
	switch h {
	case HighlightNone, HighlightYellow, HighlightGreen, HighlightBlue, HighlightPink, HighlightPurple:
		return true
	}
	return false
}

func validTextColor(c TextColor) bool {
	switch c {
	case TextDefault, TextRed, TextBlue, TextGreen, TextPurple, TextOrange, TextPink:
		return true
	}
	return false
}
