// Package speech wraps the external speech playback and capture commands.
package speech

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// Speaker reads text aloud.
type Speaker interface {
	Say(ctx context.Context, text string)
}

// CommandSpeaker speaks via an external TTS command (e.g. "say" on macOS,
// "espeak" on Linux). The text is appended as the final argument.
type CommandSpeaker struct {
	name   string
	args   []string
	logger *slog.Logger
}

// NewCommandSpeaker parses a command line like "espeak -s 150" into a speaker.
func NewCommandSpeaker(command string) *CommandSpeaker {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"say"}
	}
	return &CommandSpeaker{
		name:   fields[0],
		args:   fields[1:],
		logger: slog.Default(),
	}
}

// Say speaks the text, blocking until playback finishes. Playback is a
// non-critical side channel: failures are logged and swallowed.
func (s *CommandSpeaker) Say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(ctx, s.name, args...)
	if err := cmd.Run(); err != nil {
		s.logger.Warn("speech playback failed", "command", s.name, "error", err)
	}
}

// NopSpeaker discards all playback. Used when no TTS command is available.
type NopSpeaker struct{}

func (NopSpeaker) Say(context.Context, string) {}
