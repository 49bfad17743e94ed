// Package player launches an external media player on a resolved video.
// Players run via exec.Command with explicit argument slices; nothing is
// passed through a shell.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Target is what to play: a remote media URL or a downloaded file.
type Target struct {
	Location string
	Title    string
	// Referer and UserAgent are sent with remote requests. Some CDNs reject
	// requests without the platform's referer.
	Referer   string
	UserAgent string
}

func (t Target) remote() bool {
	return strings.HasPrefix(t.Location, "http://") || strings.HasPrefix(t.Location, "https://")
}

// Player launches one media player binary.
type Player struct {
	name string
	args func(Target) []string
}

// Names lists the supported players.
var Names = []string{"mpv", "vlc", "iina", "celluloid"}

// New returns the player for name. Unknown names fall back to mpv.
func New(name string) *Player {
	switch strings.ToLower(name) {
	case "vlc":
		return &Player{name: "vlc", args: vlcArgs}
	case "iina", "celluloid":
		// both accept mpv-style flags
		return &Player{name: strings.ToLower(name), args: mpvArgs}
	default:
		return &Player{name: "mpv", args: mpvArgs}
	}
}

// Name returns the player binary name.
func (p *Player) Name() string { return p.name }

// Available checks if the player binary exists in PATH.
func (p *Player) Available() bool {
	_, err := exec.LookPath(p.name)
	return err == nil
}

// Args returns the command line for t, without the binary.
func (p *Player) Args(t Target) []string { return p.args(t) }

// Play runs the player and waits for it to exit. Quitting the player,
// whatever its exit status, is not an error.
func (p *Player) Play(ctx context.Context, t Target) error {
	if t.Location == "" {
		return errors.New("nothing to play")
	}
	bin, err := exec.LookPath(p.name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", p.name, err)
	}

	cmd := exec.CommandContext(ctx, bin, p.args(t)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("running %s: %w", p.name, err)
	}
	return nil
}

func mpvArgs(t Target) []string {
	args := []string{t.Location, "--really-quiet"}
	if t.Title != "" {
		args = append(args, "--force-media-title="+t.Title)
	}
	if t.remote() {
		if t.Referer != "" {
			args = append(args, "--referrer="+t.Referer)
		}
		if t.UserAgent != "" {
			args = append(args, "--user-agent="+t.UserAgent)
		}
	}
	return args
}

func vlcArgs(t Target) []string {
	args := []string{t.Location, "--play-and-exit"}
	if t.Title != "" {
		args = append(args, "--meta-title="+t.Title)
	}
	if t.remote() {
		if t.Referer != "" {
			args = append(args, "--http-referrer="+t.Referer)
		}
		if t.UserAgent != "" {
			args = append(args, "--http-user-agent="+t.UserAgent)
		}
	}
	return args
}
