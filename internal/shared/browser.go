package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// launchers maps GOOS to the command that hands a URL to the desktop's default browser.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"openbsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// browserCommand resolves the argv used to open url. A non-empty $BROWSER wins over the platform default.
func browserCommand(goos, browserEnv, url string) ([]string, error) {
	if fields := strings.Fields(browserEnv); len(fields) > 0 {
		return append(fields, url), nil
	}
	launcher, ok := launchers[goos]
	if !ok {
		return nil, fmt.Errorf("%w: no browser launcher for %s, set $BROWSER", ErrServiceUnavailable, goos)
	}
	return append(append([]string(nil), launcher...), url), nil
}

// OpenBrowser opens the authorization URL in the user's browser without waiting for it to exit.
func OpenBrowser(url string) error {
	argv, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), url)
	if err != nil {
		return err
	}
	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser with %s: %w", argv[0], err)
	}
	return nil
}
