package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Recorder captures a spoken answer and returns its transcript together with
// the wall-clock seconds spent recording.
type Recorder interface {
	Record(ctx context.Context, maxSeconds int) (transcript string, elapsedSec float64, err error)
}

// CommandRecorder records through an external capture command and transcribes
// through an external speech-to-text command. Both command lines may contain
// the placeholders {seconds} and {file}.
type CommandRecorder struct {
	recordCommand     string
	transcribeCommand string
	logger            *slog.Logger
}

// NewCommandRecorder creates a recorder from the two command templates.
func NewCommandRecorder(recordCommand, transcribeCommand string) *CommandRecorder {
	return &CommandRecorder{
		recordCommand:     recordCommand,
		transcribeCommand: transcribeCommand,
		logger:            slog.Default(),
	}
}

// Record captures audio for at most maxSeconds, then transcribes it. Capture
// failure is an error; transcription failure degrades to an empty transcript
// (logged), matching the collaborator contract where silence and failure are
// indistinguishable. The returned duration is measured wall-clock time of the
// capture, not the requested ceiling.
func (r *CommandRecorder) Record(ctx context.Context, maxSeconds int) (string, float64, error) {
	tmp, err := os.CreateTemp("", "prepvox-answer-*.wav")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp audio file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	// Give the capture command a small grace period past the ceiling before
	// the context kills it.
	recordCtx, cancel := context.WithTimeout(ctx, time.Duration(maxSeconds+5)*time.Second)
	defer cancel()

	start := time.Now()
	if err := r.runTemplate(recordCtx, r.recordCommand, maxSeconds, tmpPath, nil); err != nil {
		return "", 0, fmt.Errorf("recording audio: %w", err)
	}
	elapsed := time.Since(start).Seconds()

	var out bytes.Buffer
	if err := r.runTemplate(ctx, r.transcribeCommand, maxSeconds, tmpPath, &out); err != nil {
		r.logger.Warn("transcription failed, storing empty transcript", "error", err)
		return "", elapsed, nil
	}

	return strings.TrimSpace(out.String()), elapsed, nil
}

func (r *CommandRecorder) runTemplate(ctx context.Context, template string, seconds int, file string, stdout *bytes.Buffer) error {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return fmt.Errorf("empty command template")
	}
	for i, f := range fields {
		f = strings.ReplaceAll(f, "{seconds}", strconv.Itoa(seconds))
		f = strings.ReplaceAll(f, "{file}", file)
		fields[i] = f
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	if stdout != nil {
		cmd.Stdout = stdout
	}
	return cmd.Run()
}
