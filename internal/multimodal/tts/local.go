package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

// LocalTTSConfig holds configuration for the local Piper TTS backend.
type LocalTTSConfig struct {
	PiperBinPath string // default: "piper"
	ModelPath    string // required: path to the .onnx voice model
}

// LocalTTS synthesizes speech using the Piper binary via subprocess.
// The voice is fixed by the model file, so VoiceID is ignored.
type LocalTTS struct {
	cfg   LocalTTSConfig
	blobs storage.Storage
}

// NewLocalTTS creates a LocalTTS backed by a local Piper binary.
func NewLocalTTS(cfg LocalTTSConfig, blobs storage.Storage) *LocalTTS {
	if cfg.PiperBinPath == "" {
		cfg.PiperBinPath = "piper"
	}
	return &LocalTTS{cfg: cfg, blobs: blobs}
}

func (l *LocalTTS) Name() string { return "local-piper" }

// Synthesize pipes text into Piper via stdin and publishes the WAV it writes to stdout.
func (l *LocalTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if l.cfg.ModelPath == "" {
		return nil, apperr.Wrap(apperr.KindNotConfigured, "tts.synthesize", ErrNotConfigured,
			"Piper model path is required (set TTS_LOCAL_PIPER_MODEL).")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "tts.synthesize", "Text is required.")
	}

	cmd := exec.CommandContext(ctx, l.cfg.PiperBinPath, "--model", l.cfg.ModelPath, "--output_file", "-")
	cmd.Stdin = strings.NewReader(req.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "tts.synthesize",
			fmt.Errorf("%w: piper: %w (stderr: %s)", ErrSynthesisFailed, err, stderr.String()),
			"Failed to generate audio: "+err.Error())
	}

	return publish(ctx, l.blobs, stdout.Bytes(), ".wav", "audio/wav")
}

// ListVoices reports the single voice baked into the model file.
func (l *LocalTTS) ListVoices(_ context.Context) ([]Voice, error) {
	if l.cfg.ModelPath == "" {
		return nil, apperr.Wrap(apperr.KindNotConfigured, "tts.voices", ErrNotConfigured,
			"Piper model path is required (set TTS_LOCAL_PIPER_MODEL).")
	}
	name := strings.TrimSuffix(filepath.Base(l.cfg.ModelPath), filepath.Ext(l.cfg.ModelPath))
	return []Voice{{VoiceID: name, DisplayName: name}}, nil
}
