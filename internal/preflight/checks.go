package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"golang.org/x/sys/unix"

	"minutes/internal/config"
	"minutes/internal/services/minutesapi"
)

// Pinger is the part of the backend client the reachability check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckBackend verifies that the minutes backend answers at its base URL.
// It uses a 5-second timeout and a single attempt.
func CheckBackend(ctx context.Context, baseURL string, client Pinger) Result {
	const name = "Minutes backend"
	if client == nil {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", baseURL, summarizeBackendError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", baseURL)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckClipboard reports whether a clipboard utility is available for copy.
func CheckClipboard() Result {
	const name = "Clipboard"
	if clipboard.Unsupported {
		return Result{Name: name, Detail: "no clipboard utility found (install xclip, xsel or wl-clipboard)"}
	}
	return Result{Name: name, Passed: true, Detail: "available"}
}

// CheckNotifications validates the ntfy topic without publishing to it.
func CheckNotifications(topic string) Result {
	const name = "Notifications"
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not an http(s) topic url)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// summarizeBackendError produces a human-readable summary for ping failures.
func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (backend unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (backend unreachable)"
	}
	if minutesapi.IsUnavailable(err) {
		return "unreachable"
	}
	return minutesapi.UserMessage(err)
}

func newBackendClient(cfg *config.Config) Pinger {
	client, err := minutesapi.New(cfg.Server.URL, 0)
	if err != nil {
		return nil
	}
	return client
}
