package playback

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// AudioSink consumes one framed WAV stream. Play returns a stop function
// that must be safe to call at most once.
type AudioSink interface {
	Play(wav []byte) (stop func(), err error)
}

// ExecSink plays WAV audio by writing a temp file and shelling out to a
// configured player command, e.g. "aplay -q" or "ffplay -nodisp -autoexit".
type ExecSink struct {
	command string
	logger  arbor.ILogger
	tempDir string
	seq     atomic.Uint64
}

// NewExecSink creates a sink around an external player command.
func NewExecSink(command string, logger arbor.ILogger) (*ExecSink, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("player command cannot be empty")
	}

	tempDir := filepath.Join(os.TempDir(), "audile-audio")
	os.MkdirAll(tempDir, 0755)

	return &ExecSink{
		command: command,
		logger:  logger,
		tempDir: tempDir,
	}, nil
}

// Play writes the WAV to a temp file and starts the player process. The
// returned stop function kills the process and removes the file.
func (s *ExecSink) Play(wav []byte) (func(), error) {
	tempFile := filepath.Join(s.tempDir, fmt.Sprintf("narration_%d_%d.wav", os.Getpid(), s.seq.Add(1)))
	if err := os.WriteFile(tempFile, wav, 0644); err != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	fields := strings.Fields(s.command)
	args := append(fields[1:], tempFile)
	cmd := exec.Command(fields[0], args...)
	if err := cmd.Start(); err != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("failed to start player %q: %w", fields[0], err)
	}

	s.logger.Debug().
		Str("player", fields[0]).
		Int("wav_bytes", len(wav)).
		Msg("Player started")

	// Reap the process so finished players don't linger as zombies.
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
		os.Remove(tempFile)
	}()

	stop := func() {
		select {
		case <-done:
		default:
			cmd.Process.Kill()
		}
	}

	return stop, nil
}
