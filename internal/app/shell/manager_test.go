package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powergram/powergram/internal/domain"
	"github.com/powergram/powergram/internal/infra/sqlite"
)

const (
	adminID    = int64(1000)
	strangerID = int64(2000)
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: make(map[string]string)} }

func (s *fakeStore) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeStore) Set(key, value string) error {
	s.data[key] = value
	return nil
}

// fakeRunner records the last invocation instead of executing.
type fakeRunner struct {
	lastCommand string
	lastDir     string
	lastTimeout time.Duration
	calls       int
	result      Result
	err         error
}

func (r *fakeRunner) Run(_ context.Context, command, dir string, timeout time.Duration) (Result, error) {
	r.calls++
	r.lastCommand = command
	r.lastDir = dir
	r.lastTimeout = timeout
	return r.result, r.err
}

func newTestManager() (*Manager, *fakeStore, *fakeRunner) {
	store := newFakeStore()
	runner := &fakeRunner{result: Result{Output: "ok", ExitCode: 0}}
	return NewManager(store, runner, adminID, true), store, runner
}

func TestOpenRequiresAuthorization(t *testing.T) {
	m, _, _ := newTestManager()

	require.ErrorIs(t, m.Open(strangerID), domain.ErrNotAuthorized)
	require.NoError(t, m.Open(adminID))
	assert.True(t, m.IsOpen(adminID))

	// Second open signals "already open", not success.
	require.ErrorIs(t, m.Open(adminID), domain.ErrSessionOpen)
}

func TestOpenDeniedWhenShellDisabled(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, &fakeRunner{}, adminID, false)
	require.ErrorIs(t, m.Open(adminID), domain.ErrNotAuthorized)

	// Persisted flag overrides the bootstrap default.
	store.data[sqlite.KeyEnableShell] = "1"
	require.NoError(t, m.Open(adminID))
}

func TestNoAdminConfiguredDisablesEverything(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, &fakeRunner{}, 0, true)

	assert.False(t, m.IsAuthorized(0))
	assert.False(t, m.IsAuthorized(strangerID))
	require.ErrorIs(t, m.Open(strangerID), domain.ErrNotAuthorized)
	_, err := m.ExecOneOff(context.Background(), strangerID, "id")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCloseIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager()
	require.NoError(t, m.Open(adminID))
	require.NoError(t, m.Close(adminID))
	require.ErrorIs(t, m.Close(adminID), domain.ErrSessionNotOpen)
	assert.False(t, m.IsOpen(adminID))
}

func TestChangeDirRelativeAndAtomic(t *testing.T) {
	m, _, _ := newTestManager()
	require.NoError(t, m.Open(adminID))

	base := t.TempDir()
	sub := filepath.Join(base, "logs")
	require.NoError(t, os.Mkdir(sub, 0755))

	got, err := m.ChangeDir(adminID, base)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	// Relative path resolves against the session directory, not the
	// process working directory.
	got, err = m.ChangeDir(adminID, "logs")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	// Failed change leaves the directory exactly as it was.
	_, err = m.ChangeDir(adminID, "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNoSuchDir)
	dir, err := m.Dir(adminID)
	require.NoError(t, err)
	assert.Equal(t, sub, dir)

	got, err = m.ChangeDir(adminID, "..")
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestChangeDirEmptyResetsHome(t *testing.T) {
	m, _, _ := newTestManager()
	require.NoError(t, m.Open(adminID))

	base := t.TempDir()
	_, err := m.ChangeDir(adminID, base)
	require.NoError(t, err)

	got, err := m.ChangeDir(adminID, "")
	require.NoError(t, err)
	assert.Equal(t, m.home, got)
}

func TestChangeDirRequiresOpenSession(t *testing.T) {
	m, _, _ := newTestManager()
	_, err := m.ChangeDir(adminID, "/tmp")
	require.ErrorIs(t, err, domain.ErrSessionNotOpen)
	_, err = m.Dir(adminID)
	require.ErrorIs(t, err, domain.ErrSessionNotOpen)
}

func TestExecSessionUsesSessionDirectory(t *testing.T) {
	m, _, runner := newTestManager()
	require.NoError(t, m.Open(adminID))
	base := t.TempDir()
	_, err := m.ChangeDir(adminID, base)
	require.NoError(t, err)

	res, err := m.ExecSession(context.Background(), adminID, "ls -la")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Output)
	assert.Equal(t, "ls -la", runner.lastCommand)
	assert.Equal(t, base, runner.lastDir)
	assert.Equal(t, SessionTimeout, runner.lastTimeout)
}

func TestExecSessionStripsCodeFence(t *testing.T) {
	m, _, runner := newTestManager()
	require.NoError(t, m.Open(adminID))

	_, err := m.ExecSession(context.Background(), adminID, "```\nuname -a\n```")
	require.NoError(t, err)
	assert.Equal(t, "uname -a", runner.lastCommand)
}

func TestExecSessionRevokedMidSessionClosesIt(t *testing.T) {
	m, store, runner := newTestManager()
	require.NoError(t, m.Open(adminID))

	_, err := m.ExecSession(context.Background(), adminID, "true")
	require.NoError(t, err)

	// Admin disables the shell between two commands of the same
	// open session: the next execute must close the session and
	// deny, not run.
	store.data[sqlite.KeyEnableShell] = "0"
	_, err = m.ExecSession(context.Background(), adminID, "true")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.False(t, m.IsOpen(adminID))
	assert.Equal(t, 1, runner.calls)

	// And execute while closed never implicitly re-opens.
	store.data[sqlite.KeyEnableShell] = "1"
	_, err = m.ExecSession(context.Background(), adminID, "true")
	require.ErrorIs(t, err, domain.ErrSessionNotOpen)
}

func TestExecOneOffRequiresAuthOnly(t *testing.T) {
	m, _, runner := newTestManager()

	// No session needed.
	res, err := m.ExecOneOff(context.Background(), adminID, "uname -a")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Output)
	assert.Equal(t, "", runner.lastDir)
	assert.Equal(t, OneOffTimeout, runner.lastTimeout)

	_, err = m.ExecOneOff(context.Background(), strangerID, "uname -a")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestRunAliasNeedsNoAuthorization(t *testing.T) {
	store := newFakeStore()
	runner := &fakeRunner{result: Result{Output: "up 3 days", ExitCode: 0}}
	m := NewManager(store, runner, 0, false) // no admin, shell off

	res, err := m.RunAlias(context.Background(), "uptime")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "uptime", runner.lastCommand)
	assert.Equal(t, AliasTimeout, runner.lastTimeout)
}

func TestRunAliasUnknown(t *testing.T) {
	m, _, runner := newTestManager()
	_, err := m.RunAlias(context.Background(), "rm-rf")
	require.ErrorIs(t, err, domain.ErrUnknownAlias)
	assert.Zero(t, runner.calls)
	// The error names the valid aliases for the user.
	assert.Contains(t, err.Error(), "uptime")
}

func TestSetAdminPolicy(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, &fakeRunner{}, 0, true)

	// No admin configured yet: anyone may claim it.
	require.NoError(t, m.SetAdmin(strangerID, strangerID))
	assert.Equal(t, strangerID, m.AdminID())

	// Now only the current admin may change it.
	require.ErrorIs(t, m.SetAdmin(adminID, adminID), domain.ErrNotAuthorized)
	require.NoError(t, m.SetAdmin(strangerID, adminID))
	assert.Equal(t, adminID, m.AdminID())
}

func TestSetAdminBootstrapAdminAlwaysAllowed(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, &fakeRunner{}, adminID, true)
	store.data[sqlite.KeyAdminChatID] = "9999"

	// The bootstrap admin can recover control even after an override.
	require.NoError(t, m.SetAdmin(adminID, adminID))
	assert.Equal(t, adminID, m.AdminID())
}

func TestEnableDisableShell(t *testing.T) {
	m, store, _ := newTestManager()

	require.ErrorIs(t, m.EnableShell(strangerID), domain.ErrNotAuthorized)
	require.NoError(t, m.DisableShell(adminID))
	assert.Equal(t, "0", store.data[sqlite.KeyEnableShell])
	assert.False(t, m.ShellEnabled())
	require.NoError(t, m.EnableShell(adminID))
	assert.True(t, m.ShellEnabled())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))

	long := strings.Repeat("x", 50)
	got := Truncate(long, 10)
	assert.True(t, strings.HasSuffix(got, "…[truncated]"))
	assert.Equal(t, long[:10], got[:10])
}

func TestTruncateNeverSplitsRune(t *testing.T) {
	// A byte limit landing mid-rune must back up, not emit a torn
	// multibyte sequence: the transport rejects invalid UTF-8.
	cyrillic := strings.Repeat("д", 10) // 2 bytes each
	got := Truncate(cyrillic, 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "дд\n…[truncated]", got)

	// Limit on a boundary keeps every whole rune.
	got = Truncate(cyrillic, 6)
	assert.Equal(t, "ддд\n…[truncated]", got)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "ls", stripCodeFence("ls"))
	assert.Equal(t, "ls", stripCodeFence("```ls```"))
	assert.Equal(t, "ls -la", stripCodeFence("```\nls -la\n```"))
	// Unbalanced fences are left alone.
	assert.Equal(t, "```ls", stripCodeFence("```ls"))
}
