package valueobjects

import (
	"fmt"
	"strings"
)

// MediaKind tags the attachment variant
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaDocument MediaKind = "document"
	MediaLink     MediaKind = "link"
)

// LinkKind classifies external links
type LinkKind string

const (
	LinkYouTube LinkKind = "youtube"
	LinkVideo   LinkKind = "video"
	LinkAudio   LinkKind = "audio"
	LinkOther   LinkKind = "other"
)

// MediaInfo carries the fields shared by every attachment variant.
// Source is either an inline data URL or an external path/URL.
type MediaInfo struct {
	ID            string
	Name          string
	Source        string
	FilePath      string
	Size          *int64
	LastModified  *int64
	MimeType      string
	ExtractedText string
}

// Media is an attachment on a node: one of Image, Document or Link.
type Media interface {
	Kind() MediaKind
	Info() MediaInfo
	media()
}

// Image attachment
type Image struct {
	MediaInfo
}

// Document attachment, typically a PDF or office file
type Document struct {
	MediaInfo
}

// Link to external content
type Link struct {
	MediaInfo
	LinkKind LinkKind
}

func (Image) Kind() MediaKind    { return MediaImage }
func (Document) Kind() MediaKind { return MediaDocument }
func (Link) Kind() MediaKind     { return MediaLink }

func (m Image) Info() MediaInfo    { return m.MediaInfo }
func (m Document) Info() MediaInfo { return m.MediaInfo }
func (m Link) Info() MediaInfo     { return m.MediaInfo }

func (Image) media()    {}
func (Document) media() {}
func (Link) media()     {}

// NewMedia builds the variant for kind. Links with no explicit kind are classified
// from their URL.
func NewMedia(kind MediaKind, info MediaInfo, linkKind LinkKind) (Media, error) {
	if info.ID == "" {
		return nil, fmt.Errorf("media id is required")
	}
	switch kind {
	case MediaImage:
		return Image{MediaInfo: info}, nil
	case MediaDocument:
		return Document{MediaInfo: info}, nil
	case MediaLink:
		switch linkKind {
		case LinkYouTube, LinkVideo, LinkAudio, LinkOther:
		default:
			linkKind = DetectLinkKind(info.Source)
		}
		return Link{MediaInfo: info, LinkKind: linkKind}, nil
	default:
		return nil, fmt.Errorf("unknown media type %q", kind)
	}
}

// DetectLinkKind classifies a URL by host and file extension.
func DetectLinkKind(url string) LinkKind {
	u := strings.ToLower(url)
	switch {
	case containsAny(u, "youtube.com", "youtu.be"):
		return LinkYouTube
	case containsAny(u, ".mp4", ".webm", ".ogg", "vimeo.com", "dailymotion.com"):
		return LinkVideo
	case containsAny(u, ".mp3", ".wav", "soundcloud.com", "spotify.com"):
		return LinkAudio
	default:
		return LinkOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
