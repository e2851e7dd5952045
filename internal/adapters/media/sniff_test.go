package media

import (
	"bytes"
	"testing"

	"github.com/scentlab/avatar-relay/internal/domain"
)

func wavHeader() []byte {
	b := make([]byte, 44)
	copy(b[0:4], "RIFF")
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	return b
}

func TestSniffKnownSignatures(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want domain.MimeType
	}{
		{"riff wave", wavHeader(), domain.MimeWAV},
		{"id3 tag", append([]byte("ID3"), make([]byte, 16)...), domain.MimeMPEG},
		{"mpeg frame sync", append([]byte{0xFF, 0xFB, 0x90}, make([]byte, 16)...), domain.MimeMPEG},
		{"ogg marker", append([]byte("OggS"), make([]byte, 32)...), domain.MimeOgg},
		{"ebml header", append([]byte{0x1A, 0x45, 0xDF, 0xA3}, make([]byte, 32)...), domain.MimeWebM},
		{"ftyp box", append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, make([]byte, 16)...), domain.MimeMP4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sniff(tc.data); got != tc.want {
				t.Fatalf("Sniff(%s) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestSniffUnknown(t *testing.T) {
	if got := Sniff(nil); got != domain.MimeUnknown {
		t.Fatalf("Sniff(nil) = %q, want unknown", got)
	}
	if got := Sniff([]byte("hello, not audio at all")); got != domain.MimeUnknown {
		t.Fatalf("Sniff(text) = %q, want unknown", got)
	}
}

func TestResolveExtPrefersDeclared(t *testing.T) {
	ext, sniffed := ResolveExt("audio/mp4;codecs=aac", wavHeader())
	if ext != ".m4a" {
		t.Fatalf("declared type should win, got %q", ext)
	}
	if sniffed != domain.MimeWAV {
		t.Fatalf("sniff should still see the wav header, got %q", sniffed)
	}
}

func TestResolveExtFallsBackToSniff(t *testing.T) {
	ext, _ := ResolveExt("", append([]byte("OggS"), make([]byte, 32)...))
	if ext != ".ogg" {
		t.Fatalf("sniffed type should be used, got %q", ext)
	}
}

func TestResolveExtDefaultsToWebM(t *testing.T) {
	ext, _ := ResolveExt("text/plain", bytes.Repeat([]byte{'x'}, 64))
	if ext != ".webm" {
		t.Fatalf("inconclusive input should default to .webm, got %q", ext)
	}
}
