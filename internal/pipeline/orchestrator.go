// Package pipeline sequences upload, transcription, response and synthesis
// into the workflows the HTTP layer exposes.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/stt"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/tts"
	"github.com/nikhilbhutani/voiceagent/internal/upload"
)

// AssetStore keeps uploaded audio addressable by key.
type AssetStore interface {
	Save(ctx context.Context, r io.Reader, filename, contentType string) (*upload.Asset, error)
	Open(ctx context.Context, key string) (*upload.Asset, io.ReadCloser, error)
}

// Responder produces a text reply to a prompt.
type Responder interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Result is the output of a workflow. Fields a workflow does not produce stay empty.
type Result struct {
	Filename      string `json:"filename,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	Response      string `json:"response,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
}

type Orchestrator struct {
	store        AssetStore
	transcriber  stt.STTProvider
	synthesizer  tts.TTSProvider
	responder    Responder
	defaultVoice string
}

func NewOrchestrator(store AssetStore, transcriber stt.STTProvider, synthesizer tts.TTSProvider, responder Responder, defaultVoice string) *Orchestrator {
	if defaultVoice == "" {
		defaultVoice = "en-IN-aarav"
	}
	return &Orchestrator{
		store:        store,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		responder:    responder,
		defaultVoice: defaultVoice,
	}
}

func (o *Orchestrator) DefaultVoice() string { return o.defaultVoice }

// Upload stores an audio blob without running any other stage.
func (o *Orchestrator) Upload(ctx context.Context, r io.Reader, filename, contentType string) (*upload.Asset, error) {
	return o.store.Save(ctx, r, filename, contentType)
}

// RunTranscription transcribes a previously uploaded asset.
func (o *Orchestrator) RunTranscription(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", apperr.New(apperr.KindInvalidInput, "pipeline.transcribe", "Filename is required.")
	}
	resp, err := o.transcribe(ctx, key)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// RunSynthesis renders text with voiceID, or the default voice when empty.
func (o *Orchestrator) RunSynthesis(ctx context.Context, text, voiceID string) (string, error) {
	if voiceID == "" {
		voiceID = o.defaultVoice
	}
	res, err := o.synthesizer.Synthesize(ctx, tts.SynthesisRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return "", err
	}
	return res.AudioURL, nil
}

// RunLLMQuery asks the responder for a reply to text.
func (o *Orchestrator) RunLLMQuery(ctx context.Context, text string) (string, error) {
	return o.responder.Query(ctx, text)
}

func (o *Orchestrator) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return o.synthesizer.ListVoices(ctx)
}

// RunEcho stores the audio, transcribes it and speaks the transcript back
// with the default voice. The first failing stage ends the run.
func (o *Orchestrator) RunEcho(ctx context.Context, r io.Reader, filename, contentType string) (*Result, error) {
	w := newRun("echo")
	asset, err := o.store.Save(ctx, r, filename, contentType)
	if err != nil {
		return nil, w.fail(StageUpload, err)
	}
	w.to(StateStored)
	return o.echo(ctx, w, asset.Key)
}

// RunEchoAsset is RunEcho for audio that is already stored under key.
func (o *Orchestrator) RunEchoAsset(ctx context.Context, key string) (*Result, error) {
	w := newRun("echo")
	w.to(StateStored)
	return o.echo(ctx, w, key)
}

func (o *Orchestrator) echo(ctx context.Context, w *run, key string) (*Result, error) {
	text, err := o.transcribeStage(ctx, w, key)
	if err != nil {
		return nil, err
	}

	audioURL, err := o.synthesizeStage(ctx, w, text)
	if err != nil {
		return nil, err
	}

	w.done()
	return &Result{Filename: key, Transcription: text, AudioURL: audioURL}, nil
}

// RunConversation is a full voice-agent turn: the transcript is answered by
// the responder and the answer is spoken with the default voice.
func (o *Orchestrator) RunConversation(ctx context.Context, r io.Reader, filename, contentType string) (*Result, error) {
	w := newRun("conversation")
	asset, err := o.store.Save(ctx, r, filename, contentType)
	if err != nil {
		return nil, w.fail(StageUpload, err)
	}
	w.to(StateStored)

	text, err := o.transcribeStage(ctx, w, asset.Key)
	if err != nil {
		return nil, err
	}

	w.to(StateResponding)
	reply, err := o.responder.Query(ctx, text)
	if err != nil {
		return nil, w.fail(StageRespond, err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, w.fail(StageRespond, apperr.New(apperr.KindUpstreamMalformed, "pipeline.respond", "Language model returned an empty response."))
	}
	w.to(StateResponded)

	audioURL, err := o.synthesizeStage(ctx, w, reply)
	if err != nil {
		return nil, err
	}

	w.done()
	return &Result{Filename: asset.Key, Transcription: text, Response: reply, AudioURL: audioURL}, nil
}

func (o *Orchestrator) transcribeStage(ctx context.Context, w *run, key string) (string, error) {
	w.to(StateTranscribing)
	resp, err := o.transcribe(ctx, key)
	if err != nil {
		return "", w.fail(StageTranscribe, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", w.fail(StageTranscribe, apperr.New(apperr.KindUpstreamMalformed, "pipeline.transcribe", "Transcription returned no text."))
	}
	w.to(StateTranscribed)
	return resp.Text, nil
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, w *run, text string) (string, error) {
	w.to(StateSynthesizing)
	res, err := o.synthesizer.Synthesize(ctx, tts.SynthesisRequest{Text: text, VoiceID: o.defaultVoice})
	if err != nil {
		return "", w.fail(StageSynthesize, err)
	}
	return res.AudioURL, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, key string) (*stt.TranscriptionResponse, error) {
	asset, rc, err := o.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	audio, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "pipeline.transcribe", fmt.Errorf("read asset %s: %w", key, err), "Failed to read stored file.")
	}

	return o.transcriber.Transcribe(ctx, stt.TranscriptionRequest{
		Audio:       audio,
		Filename:    asset.Key,
		ContentType: asset.ContentType,
	})
}
