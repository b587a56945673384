package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultScriptTimeout = 30 * time.Second

// Runner executes an AppleScript source.
type Runner interface {
	Run(ctx context.Context, script string) error
}

// ExecRunner runs scripts with `osascript -e`. Success means exit status 0.
type ExecRunner struct {
	Path    string
	Timeout time.Duration
}

func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	return &ExecRunner{Path: "osascript", Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, script string) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, "-e", script)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("osascript: %w: %s", err, msg)
		}
		return fmt.Errorf("osascript: %w", err)
	}
	return nil
}

var scriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\'`)

// Escape prepares s for an AppleScript string literal.
func Escape(s string) string {
	return scriptEscaper.Replace(s)
}

// MessagesChannel sends through the Messages iMessage service directly.
type MessagesChannel struct {
	runner Runner
}

func NewMessagesChannel(r Runner) *MessagesChannel { return &MessagesChannel{runner: r} }

func (c *MessagesChannel) Name() string { return "messages" }

func (c *MessagesChannel) Send(ctx context.Context, recipient, text string) error {
	return c.runner.Run(ctx, MessagesScript(recipient, text))
}

// MessagesScript addresses the recipient as a buddy of the iMessage service.
func MessagesScript(recipient, text string) string {
	return fmt.Sprintf(`tell application "Messages"
	set targetService to 1st service whose service type = iMessage
	set targetBuddy to buddy "%s" of targetService
	send "%s" to targetBuddy
end tell`, Escape(recipient), Escape(text))
}

// KeystrokeChannel types the message into a new Messages conversation via
// System Events. It needs accessibility permission.
type KeystrokeChannel struct {
	runner Runner
}

func NewKeystrokeChannel(r Runner) *KeystrokeChannel { return &KeystrokeChannel{runner: r} }

func (c *KeystrokeChannel) Name() string { return "keystroke" }

func (c *KeystrokeChannel) Send(ctx context.Context, recipient, text string) error {
	return c.runner.Run(ctx, KeystrokeScript(recipient, text))
}

// KeystrokeScript opens a new conversation (cmd-N), enters the recipient,
// then the message, pressing return (key code 36) after each.
func KeystrokeScript(recipient, text string) string {
	return fmt.Sprintf(`tell application "Messages" to activate
delay 0.5
tell application "System Events"
	tell process "Messages"
		keystroke "n" using command down
		delay 0.3
		keystroke "%s"
		delay 0.3
		key code 36
		delay 0.3
		keystroke "%s"
		delay 0.2
		key code 36
	end tell
end tell`, Escape(recipient), Escape(text))
}

// Available reports whether the osascript binary can be found.
func (r *ExecRunner) Available() (string, bool) {
	p, err := exec.LookPath(r.Path)
	return p, err == nil
}
