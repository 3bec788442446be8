package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/powergram/powergram/internal/domain"
	"github.com/powergram/powergram/internal/infra/metrics"
	"github.com/powergram/powergram/internal/infra/sqlite"
)

// Timeouts and output cap for the three execution entry points.
const (
	SessionTimeout = 25 * time.Second
	OneOffTimeout  = 25 * time.Second
	AliasTimeout   = 20 * time.Second

	// MaxOutput caps command output before it is handed to the
	// transport. Longer output is cut with a visible marker.
	MaxOutput = 3800
)

// Store is the subset of the state store the manager reads admin
// scalars from.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Manager holds the in-memory session table and gates every
// privileged operation on the persisted admin id and shell flag.
// Authorization is re-read from the store on each call; both values
// may change between requests.
type Manager struct {
	store  Store
	runner Runner

	// bootstrap defaults, used when no persisted override exists
	defaultAdmin int64
	defaultShell bool
	home         string

	mu       sync.Mutex
	sessions map[int64]string // actor id → current working directory
}

// NewManager creates a session manager. defaultAdmin and defaultShell
// are the bootstrap-time fallbacks for the persisted overrides.
func NewManager(store Store, runner Runner, defaultAdmin int64, defaultShell bool) *Manager {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}
	return &Manager{
		store:        store,
		runner:       runner,
		defaultAdmin: defaultAdmin,
		defaultShell: defaultShell,
		home:         home,
		sessions:     make(map[int64]string),
	}
}

// AdminID returns the effective admin chat id: the persisted override
// when present, else the bootstrap default. 0 means no admin.
func (m *Manager) AdminID() int64 {
	if raw, ok := m.store.Get(sqlite.KeyAdminChatID); ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	return m.defaultAdmin
}

// BootstrapAdmin returns the configured (non-persisted) admin id.
func (m *Manager) BootstrapAdmin() int64 { return m.defaultAdmin }

// ShellEnabled reports whether privileged command execution is
// currently permitted.
func (m *Manager) ShellEnabled() bool {
	if raw, ok := m.store.Get(sqlite.KeyEnableShell); ok && raw != "" {
		return parseBool(raw)
	}
	return m.defaultShell
}

// IsAuthorized reports whether actor is the effective admin. Always
// false when no admin is configured.
func (m *Manager) IsAuthorized(actor int64) bool {
	id := m.AdminID()
	return id != 0 && actor == id
}

// SetAdmin persists a new admin id. Permitted when no admin is set
// yet, when the requester is the current admin, or when the requester
// is the bootstrap admin.
func (m *Manager) SetAdmin(requester, newAdmin int64) error {
	effective := m.AdminID()
	if effective != 0 && effective != requester && requester != m.defaultAdmin {
		return domain.ErrNotAuthorized
	}
	return m.store.Set(sqlite.KeyAdminChatID, strconv.FormatInt(newAdmin, 10))
}

// EnableShell turns the privileged shell on. Admin only.
func (m *Manager) EnableShell(actor int64) error {
	if !m.IsAuthorized(actor) {
		return domain.ErrNotAuthorized
	}
	return m.store.Set(sqlite.KeyEnableShell, "1")
}

// DisableShell turns the privileged shell off. Admin only. Open
// sessions are not torn down here; they die on their next execute.
func (m *Manager) DisableShell(actor int64) error {
	if !m.IsAuthorized(actor) {
		return domain.ErrNotAuthorized
	}
	return m.store.Set(sqlite.KeyEnableShell, "0")
}

// ─── Session lifecycle ──────────────────────────────────────────────────────

// Open creates a session for actor at the home directory. Returns
// domain.ErrSessionOpen if one already exists.
func (m *Manager) Open(actor int64) error {
	if !m.IsAuthorized(actor) || !m.ShellEnabled() {
		return domain.ErrNotAuthorized
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[actor]; ok {
		return domain.ErrSessionOpen
	}
	m.sessions[actor] = m.home
	return nil
}

// Close removes actor's session. Returns domain.ErrSessionNotOpen if
// there was none; closing is otherwise idempotent.
func (m *Manager) Close(actor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[actor]; !ok {
		return domain.ErrSessionNotOpen
	}
	delete(m.sessions, actor)
	return nil
}

// IsOpen reports whether actor has an open session.
func (m *Manager) IsOpen(actor int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[actor]
	return ok
}

// Dir returns the session's current working directory.
func (m *Manager) Dir(actor int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir, ok := m.sessions[actor]
	if !ok {
		return "", domain.ErrSessionNotOpen
	}
	return dir, nil
}

// ChangeDir moves the session's working directory. An empty path
// resets to home. Relative paths resolve against the session's
// current directory. The target must exist and be a directory; on
// failure the session directory is left untouched.
func (m *Manager) ChangeDir(actor int64, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[actor]
	if !ok {
		return "", domain.ErrSessionNotOpen
	}

	if path == "" {
		m.sessions[actor] = m.home
		return m.home, nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		path = filepath.Join(m.home, strings.TrimPrefix(path[1:], "/"))
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cur, path)
	}
	target := filepath.Clean(path)

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrNoSuchDir, target)
	}

	m.sessions[actor] = target
	return target, nil
}

// ─── Execution ──────────────────────────────────────────────────────────────

// ExecSession runs a command in actor's open session. Authorization
// is re-checked here: if the actor lost admin rights or the shell was
// disabled mid-session, the session is force-closed and the command
// does not run.
func (m *Manager) ExecSession(ctx context.Context, actor int64, command string) (Result, error) {
	m.mu.Lock()
	cwd, open := m.sessions[actor]
	m.mu.Unlock()
	if !open {
		return Result{}, domain.ErrSessionNotOpen
	}

	if !m.IsAuthorized(actor) || !m.ShellEnabled() {
		m.mu.Lock()
		delete(m.sessions, actor)
		m.mu.Unlock()
		return Result{}, domain.ErrNotAuthorized
	}

	metrics.CommandsExecuted.WithLabelValues("session").Inc()
	return m.runner.Run(ctx, stripCodeFence(command), cwd, SessionTimeout)
}

// ExecOneOff runs a command as admin without a session, in the
// process's default working directory.
func (m *Manager) ExecOneOff(ctx context.Context, actor int64, command string) (Result, error) {
	if !m.IsAuthorized(actor) || !m.ShellEnabled() {
		return Result{}, domain.ErrNotAuthorized
	}
	metrics.CommandsExecuted.WithLabelValues("oneoff").Inc()
	return m.runner.Run(ctx, command, "", OneOffTimeout)
}

// RunAlias executes an allow-listed alias. No authorization is
// required; unknown aliases report the valid names.
func (m *Manager) RunAlias(ctx context.Context, alias string) (Result, error) {
	command, ok := Aliases[alias]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q (valid: %s)",
			domain.ErrUnknownAlias, alias, strings.Join(AliasNames(), " "))
	}
	metrics.CommandsExecuted.WithLabelValues("alias").Inc()
	return m.runner.Run(ctx, command, "", AliasTimeout)
}

// Truncate caps s at limit bytes, appending a visible marker so a cut
// never passes for complete output. The cut backs up to a rune
// boundary; Telegram rejects messages that are not valid UTF-8.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "\n…[truncated]"
}

// stripCodeFence unwraps a message pasted as a ```fenced``` block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		s = strings.Trim(s, "`")
		s = strings.TrimSpace(s)
	}
	return s
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
