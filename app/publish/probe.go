package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Prober reports the duration and size of an audio file.
type Prober interface {
	Probe(ctx context.Context, path string) (durationSeconds float64, sizeBytes int64, err error)
}

// FFProbeProber shells out to ffprobe for media metadata.
type FFProbeProber struct{}

func NewFFProbeProber() *FFProbeProber {
	return &FFProbeProber{}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

func (p *FFProbeProber) Probe(ctx context.Context, path string) (float64, int64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse duration %q: %w", parsed.Format.Duration, err)
	}

	size, err := strconv.ParseInt(parsed.Format.Size, 10, 64)
	if err != nil {
		if info, statErr := os.Stat(path); statErr == nil {
			size = info.Size()
		}
	}

	return duration, size, nil
}
