package domain

import "strings"

// MimeType is the resolved container format of an uploaded recording.
type MimeType string

const (
	MimeWAV     MimeType = "audio/wav"
	MimeMPEG    MimeType = "audio/mpeg"
	MimeOgg     MimeType = "audio/ogg"
	MimeWebM    MimeType = "audio/webm"
	MimeMP4     MimeType = "audio/mp4"
	MimeUnknown MimeType = "application/octet-stream"
)

// Ext returns the file extension used to name the transcoder input,
// empty for an unknown container.
func (m MimeType) Ext() string {
	switch m {
	case MimeWAV:
		return ".wav"
	case MimeMPEG:
		return ".mp3"
	case MimeOgg:
		return ".ogg"
	case MimeWebM:
		return ".webm"
	case MimeMP4:
		return ".m4a"
	}
	return ""
}

// ParseMime normalizes a declared content type ("audio/webm;codecs=opus")
// into one of the known containers, MimeUnknown otherwise.
func ParseMime(contentType string) MimeType {
	ct, _, _ := strings.Cut(contentType, ";")
	switch MimeType(strings.ToLower(strings.TrimSpace(ct))) {
	case MimeWAV:
		return MimeWAV
	case MimeMPEG:
		return MimeMPEG
	case MimeOgg:
		return MimeOgg
	case MimeWebM:
		return MimeWebM
	case MimeMP4:
		return MimeMP4
	}
	return MimeUnknown
}

// AudioUpload is a single uploaded recording, transient per request.
type AudioUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
