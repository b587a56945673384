package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	scripts []string
	errs    []error
}

func (f *fakeRunner) Run(_ context.Context, script string) error {
	i := len(f.scripts)
	f.scripts = append(f.scripts, script)
	if i < len(f.errs) {
		return f.errs[i]
	}
	return nil
}

func newTestNotifier(t *testing.T, r Runner) (*Notifier, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	n := New(dir, nil, NewMessagesChannel(r), NewKeystrokeChannel(r))
	n.now = func() time.Time { return time.Date(2026, 10, 18, 7, 5, 9, 0, time.Local) }
	return n, dir
}

func TestDeliverPrimarySuccessSkipsFallback(t *testing.T) {
	r := &fakeRunner{}
	n, dir := newTestNotifier(t, r)

	d, err := n.Deliver(context.Background(), "ops@example.com", "hello")
	require.NoError(t, err)

	assert.Equal(t, "messages", d.Channel)
	assert.True(t, d.Delivered())
	assert.Empty(t, d.BackupPath)
	require.Len(t, r.scripts, 1, "fallback must not run after primary success")
	assert.Contains(t, r.scripts[0], `send "hello" to targetBuddy`)
	assert.NoDirExists(t, dir)
}

func TestDeliverFallsBackToKeystroke(t *testing.T) {
	r := &fakeRunner{errs: []error{errors.New("osascript: exit status 1")}}
	n, _ := newTestNotifier(t, r)

	d, err := n.Deliver(context.Background(), "+15551234", "hi")
	require.NoError(t, err)

	assert.Equal(t, "keystroke", d.Channel)
	require.Len(t, r.scripts, 2)
	assert.Contains(t, r.scripts[1], `tell application "System Events"`)
	assert.Contains(t, r.scripts[1], `keystroke "+15551234"`)
	require.Len(t, d.Attempts, 2)
	assert.Equal(t, "osascript: exit status 1", d.Attempts[0].Err)
	assert.Empty(t, d.Attempts[1].Err)
}

func TestDeliverBothFailWritesBackup(t *testing.T) {
	fail := errors.New("osascript: exit status 1")
	r := &fakeRunner{errs: []error{fail, fail}}
	n, dir := newTestNotifier(t, r)
	text := "🔔 Dynatrace Daily Report\n📅 2026-10-18 07:05 UTC\n\n\"quoted\""

	d, err := n.Deliver(context.Background(), "+15551234", text)
	require.NoError(t, err)

	assert.False(t, d.Delivered())
	assert.Equal(t, filepath.Join(dir, "20261018_070509.txt"), d.BackupPath)
	data, err := os.ReadFile(d.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))
	assert.Len(t, r.scripts, 2)
}

func TestDeliverTimeoutIsTerminal(t *testing.T) {
	r := &fakeRunner{errs: []error{ErrTimeout}}
	n, _ := newTestNotifier(t, r)

	d, err := n.Deliver(context.Background(), "+15551234", "text")
	require.NoError(t, err)

	assert.Len(t, r.scripts, 1, "timeout must not move on to the fallback")
	assert.NotEmpty(t, d.BackupPath)
	assert.FileExists(t, d.BackupPath)
}

func TestBackupReportsWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	n := New(filepath.Join(blocker, "reports"), nil)
	_, err := n.Backup("text")
	assert.Error(t, err)
}

func TestBackupSameSecondKeepsBoth(t *testing.T) {
	n, dir := newTestNotifier(t, &fakeRunner{})

	first, err := n.Backup("first")
	require.NoError(t, err)
	second, err := n.Backup("second")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20261018_070509.txt"), first)
	assert.Equal(t, filepath.Join(dir, "20261018_070509_1.txt"), second)
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\"`, Escape(`say "hi"`))
	assert.Equal(t, `it\'s`, Escape(`it's`))
	assert.Equal(t, `C:\\path`, Escape(`C:\path`))
	assert.Equal(t, `\\\"`, Escape(`\"`))
}

func TestScriptsEscapeRecipientAndText(t *testing.T) {
	s := MessagesScript(`a"b`, `it's "done"`)
	assert.Contains(t, s, `buddy "a\"b" of targetService`)
	assert.Contains(t, s, `send "it\'s \"done\"" to targetBuddy`)
	assert.True(t, strings.HasPrefix(s, `tell application "Messages"`))

	k := KeystrokeScript("+1555", `x"y`)
	assert.Contains(t, k, `keystroke "x\"y"`)
	assert.Contains(t, k, `keystroke "n" using command down`)
	assert.Equal(t, 2, strings.Count(k, "key code 36"))
}

func TestChannels(t *testing.T) {
	n, _ := newTestNotifier(t, &fakeRunner{})
	assert.Equal(t, []string{"messages", "keystroke"}, n.Channels())
}

func fakeOsascript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osascript")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestExecRunner(t *testing.T) {
	t.Run("exit zero", func(t *testing.T) {
		r := &ExecRunner{Path: fakeOsascript(t, "exit 0"), Timeout: 5 * time.Second}
		assert.NoError(t, r.Run(context.Background(), "tell"))
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		r := &ExecRunner{Path: fakeOsascript(t, "echo 'execution error' >&2; exit 1"), Timeout: 5 * time.Second}
		err := r.Run(context.Background(), "tell")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution error")
		assert.False(t, errors.Is(err, ErrTimeout))
	})

	t.Run("timeout", func(t *testing.T) {
		r := &ExecRunner{Path: fakeOsascript(t, "exec sleep 5"), Timeout: 100 * time.Millisecond}
		err := r.Run(context.Background(), "tell")
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("missing binary", func(t *testing.T) {
		r := &ExecRunner{Path: filepath.Join(t.TempDir(), "nope"), Timeout: time.Second}
		assert.Error(t, r.Run(context.Background(), "tell"))
		_, ok := r.Available()
		assert.False(t, ok)
	})
}
