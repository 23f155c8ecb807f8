// Package transcode shells out to ffmpeg for audio format conversion.
package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

const ffmpegBinary = "ffmpeg"

// Available reports whether ffmpeg can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(ffmpegBinary)
	return err == nil
}

func mp3Args(input string, output string) []string {
	return []string{
		"-i", input,
		"-vn",
		"-acodec", "mp3",
		"-ab", "192k",
		"-y",
		output,
	}
}

// ToMP3 converts the input audio file to MP3, removing the input on success.
func ToMP3(ctx context.Context, input string, output string) error {
	cmd := exec.CommandContext(ctx, ffmpegBinary, mp3Args(input, output)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, out)
	}
	if err := os.Remove(input); err != nil {
		return fmt.Errorf("failed to remove intermediate file: %w", err)
	}
	return nil
}
