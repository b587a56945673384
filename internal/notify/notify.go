// Package notify delivers the daily report through Messages, with a UI
// automation fallback and a backup file when every channel fails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrTimeout is returned by a channel whose script did not finish in time.
// A timeout ends the delivery chain.
var ErrTimeout = errors.New("notify: timed out")

const (
	backupLayout    = "20060102_150405"
	maxBackupSuffix = 100
)

// Channel is one way of getting a message to a recipient.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient, text string) error
}

// Attempt records one channel's outcome.
type Attempt struct {
	Channel string `json:"channel"`
	Err     string `json:"error,omitempty"`
}

// Delivery describes how a report left the process. Channel is empty when
// the report only reached the backup file.
type Delivery struct {
	Channel    string    `json:"channel,omitempty"`
	BackupPath string    `json:"backup_path,omitempty"`
	Attempts   []Attempt `json:"attempts,omitempty"`
}

// Delivered reports whether a channel accepted the message.
func (d Delivery) Delivered() bool { return d.Channel != "" }

// Notifier walks its channels in order until one succeeds.
type Notifier struct {
	channels   []Channel
	reportsDir string
	logger     *slog.Logger
	now        func() time.Time
}

func New(reportsDir string, logger *slog.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		channels:   channels,
		reportsDir: reportsDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Channels returns the channel names in delivery order.
func (n *Notifier) Channels() []string {
	names := make([]string, len(n.channels))
	for i, ch := range n.channels {
		names[i] = ch.Name()
	}
	return names
}

// Deliver sends text to recipient. When no channel succeeds the text is
// written to a backup file; the returned error is non-nil only if that
// write fails too.
func (n *Notifier) Deliver(ctx context.Context, recipient, text string) (Delivery, error) {
	var d Delivery
	for _, ch := range n.channels {
		err := ch.Send(ctx, recipient, text)
		if err == nil {
			d.Channel = ch.Name()
			d.Attempts = append(d.Attempts, Attempt{Channel: ch.Name()})
			n.logger.Info("Message sent successfully", "channel", ch.Name(), "recipient", recipient)
			return d, nil
		}
		d.Attempts = append(d.Attempts, Attempt{Channel: ch.Name(), Err: err.Error()})
		n.logger.Error("Message delivery failed", "channel", ch.Name(), "error", err)
		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			break
		}
	}

	n.logger.Error("Failed to send daily report via Messages")
	path, err := n.Backup(text)
	d.BackupPath = path
	return d, err
}

// Backup writes text to <reportsDir>/<YYYYMMDD_HHMMSS>.txt, creating the
// directory as needed, and returns the file path.
func (n *Notifier) Backup(text string) (string, error) {
	if err := os.MkdirAll(n.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("notify: create reports dir: %w", err)
	}
	f, path, err := createBackup(n.reportsDir, n.now().Format(backupLayout))
	if err != nil {
		return "", fmt.Errorf("notify: create backup: %w", err)
	}
	_, err = f.WriteString(text)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("notify: write backup: %w", err)
	}
	n.logger.Info("Report saved", "path", path)
	return path, nil
}

// createBackup opens a new file named after stamp, adding _1, _2, ... when a
// backup from the same second already exists.
func createBackup(dir, stamp string) (*os.File, string, error) {
	for i := 0; i < maxBackupSuffix; i++ {
		name := stamp + ".txt"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.txt", stamp, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%s: too many backups in one second", stamp)
}
