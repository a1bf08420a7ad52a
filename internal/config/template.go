package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aditya-nis/EyeTalk/internal/decoder"
)

// Template returns the commented config written by `eyetalk config`.
func Template() string {
	d := decoder.DefaultConfig()
	return fmt.Sprintf(`# eyetalk configuration
# Uncomment a value to enable it. CLI flags override config values.

[decoder]
# short-blink = %q      # Closures at or below this are ignored
# long-blink = %q      # Closures at or above this are dashes
# letter-pause = %q      # Open-eye gap that ends a letter
# word-pause = %q      # Open-eye gap that adds a word space

[session]
# sample-interval = "20ms" # Keyboard sampling cadence
# queue-size = 64          # Pending samples between capture and decoding
# record = false           # Record every session to the traces directory
# history = 5              # Cleared texts kept on screen
# drill = false            # Show practice prompts

[table]
# letters = true           # Include A-Z alongside the reference symbols
# extra = ""               # File with extra "SYMBOL code" lines

[log]
# level = "info"           # debug, info, warn or error
# file = ""                # Defaults to the XDG state directory
`,
		d.ShortBlinkMin.String(),
		d.LongBlinkMin.String(),
		d.LetterPause.String(),
		d.WordPause.String(),
	)
}

// EnsureFile writes the template to path unless a file already exists there.
func EnsureFile(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
