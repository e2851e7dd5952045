// Package media normalizes uploaded browser recordings: container sniffing
// from magic bytes and resampling to mono 16 kHz PCM WAV via ffmpeg.
package media

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/scentlab/avatar-relay/internal/domain"
)

// Sniff inspects the leading bytes of a buffer and reports its container.
// Only the containers the transcoder knows are reported; everything else
// is MimeUnknown.
func Sniff(b []byte) domain.MimeType {
	if len(b) == 0 {
		return domain.MimeUnknown
	}
	mt := mimetype.Detect(b)
	switch {
	case mt.Is("audio/wav"), mt.Is("audio/x-wav"):
		return domain.MimeWAV
	case mt.Is("audio/mpeg"), mt.Is("audio/mp3"):
		return domain.MimeMPEG
	case mt.Is("audio/ogg"), mt.Is("application/ogg"), mt.Is("video/ogg"):
		return domain.MimeOgg
	case mt.Is("audio/webm"), mt.Is("video/webm"), mt.Is("video/x-matroska"):
		return domain.MimeWebM
	case mt.Is("audio/mp4"), mt.Is("video/mp4"), mt.Is("audio/x-m4a"), mt.Is("video/quicktime"):
		return domain.MimeMP4
	}
	return sniffMagic(b)
}

// sniffMagic covers signatures the library only reports with more context:
// headerless MPEG frame syncs, EBML headers without a doctype, and ftyp
// boxes with uncommon brands.
func sniffMagic(b []byte) domain.MimeType {
	switch {
	case len(b) > 1 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return domain.MimeMPEG
	case len(b) >= 4 && b[0] == 0x1A && b[1] == 0x45 && b[2] == 0xDF && b[3] == 0xA3:
		return domain.MimeWebM
	case len(b) >= 12 && string(b[4:8]) == "ftyp":
		return domain.MimeMP4
	}
	return domain.MimeUnknown
}

// ResolveExt picks the transcoder input extension for an upload: the declared
// content type wins, the sniffed signature is second, webm is the default for
// browser recordings when both are inconclusive.
func ResolveExt(declared string, data []byte) (string, domain.MimeType) {
	sniffed := Sniff(data)
	if ext := domain.ParseMime(declared).Ext(); ext != "" {
		return ext, sniffed
	}
	if ext := sniffed.Ext(); ext != "" {
		return ext, sniffed
	}
	return ".webm", sniffed
}
