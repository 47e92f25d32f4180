// Package cmd implements the command-line interface for vidra.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidra-app/vidra/color"
	"github.com/vidra-app/vidra/icon"
	"github.com/vidra-app/vidra/player"
	"github.com/vidra-app/vidra/style"
)

// backendBinaries maps each playback backend to the executable it shells out to.
// The web backend uses the system URL handler and needs nothing.
var backendBinaries = map[string]string{
	player.BackendNative: "mpv",
	player.BackendVLC:    "vlc",
	player.BackendDec:    "ffplay",
}

// CheckDependencies verifies that the binary required by the chosen backend
// is present in the system PATH.
func CheckDependencies(backend string) {
	bin, ok := backendBinaries[backend]
	if !ok {
		return
	}

	if _, err := exec.LookPath(bin); err != nil {
		printMissingDependencyError(bin)
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install " + dep
	case "linux":
		installCmd = "sudo apt install " + dep
	case "windows":
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Orange).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
