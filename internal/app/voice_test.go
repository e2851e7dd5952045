package app

import (
	"context"
	"errors"
	"testing"

	"github.com/scentlab/avatar-relay/internal/domain"
)

type fakeTranscoder struct {
	out   []byte
	err   error
	calls int
}

func (f *fakeTranscoder) Available() bool { return f.err == nil }
func (f *fakeTranscoder) Convert(_ context.Context, in []byte, _, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return in, nil
}

type fakeAudioChatter struct {
	text string
	err  error
}

func (f *fakeAudioChatter) AudioChat(context.Context, string, string, []byte) (string, error) {
	return f.text, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	return f.text, f.err
}

func wavUpload(size int) domain.AudioUpload {
	data := make([]byte, size)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WAVE")
	return domain.AudioUpload{Filename: "clip.wav", ContentType: "audio/wav", Data: data}
}

func TestVoiceChatRejectsTinyUpload(t *testing.T) {
	tr := &fakeTranscoder{}
	svc := NewVoiceService(tr, &fakeAudioChatter{}, &fakeTranscriber{})

	_, err := svc.VoiceChat(context.Background(), wavUpload(512))
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageRecvUpload {
		t.Fatalf("err = %v, want recv_upload stage error", err)
	}
	if tr.calls != 0 {
		t.Fatal("transcoder must not run for undersized uploads")
	}
}

func TestVoiceChatConversionFailure(t *testing.T) {
	tr := &fakeTranscoder{err: errors.New("codec exploded")}
	svc := NewVoiceService(tr, &fakeAudioChatter{}, &fakeTranscriber{})

	_, err := svc.VoiceChat(context.Background(), wavUpload(4096))
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageFFmpegConvert {
		t.Fatalf("err = %v, want ffmpeg_convert stage error", err)
	}
}

func TestVoiceChatHappyPath(t *testing.T) {
	svc := NewVoiceService(&fakeTranscoder{}, &fakeAudioChatter{text: "Notes: vetiver."}, &fakeTranscriber{})

	res, err := svc.VoiceChat(context.Background(), wavUpload(4096))
	if err != nil {
		t.Fatalf("VoiceChat: %v", err)
	}
	if res.Text != "Notes: vetiver." {
		t.Fatalf("text = %q", res.Text)
	}
	if res.WAVBytes != 4096 || res.B64Len == 0 {
		t.Fatalf("debug numbers missing: %+v", res)
	}
	if res.InExt != ".wav" {
		t.Fatalf("in_ext = %q", res.InExt)
	}
}

func TestVoiceChatUpstreamFailureStage(t *testing.T) {
	svc := NewVoiceService(&fakeTranscoder{}, &fakeAudioChatter{err: errors.New("503")}, &fakeTranscriber{})

	_, err := svc.VoiceChat(context.Background(), wavUpload(4096))
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageOpenAICall {
		t.Fatalf("err = %v, want openai_call stage error", err)
	}
}

func TestTranscribeMasksAllFailures(t *testing.T) {
	cases := []struct {
		name string
		svc  *VoiceService
		up   domain.AudioUpload
	}{
		{"tiny upload", NewVoiceService(&fakeTranscoder{}, &fakeAudioChatter{}, &fakeTranscriber{text: "hi"}), wavUpload(500)},
		{"conversion failure", NewVoiceService(&fakeTranscoder{err: errors.New("x")}, &fakeAudioChatter{}, &fakeTranscriber{text: "hi"}), wavUpload(8192)},
		{"inference failure", NewVoiceService(&fakeTranscoder{}, &fakeAudioChatter{}, &fakeTranscriber{err: errors.New("x")}), wavUpload(8192)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.svc.Transcribe(context.Background(), tc.up); got != "" {
				t.Fatalf("Transcribe = %q, want empty", got)
			}
		})
	}
}

func TestTranscribeHappyPath(t *testing.T) {
	svc := NewVoiceService(&fakeTranscoder{}, &fakeAudioChatter{}, &fakeTranscriber{text: "hello world"})
	if got := svc.Transcribe(context.Background(), wavUpload(8192)); got != "hello world" {
		t.Fatalf("Transcribe = %q", got)
	}
}
