package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/powergram/powergram/internal/app/shell"
	"github.com/powergram/powergram/internal/domain"
)

const helpText = `I watch your laptop's battery, temperature and fan.
Commands:
/battery — show the current state
/subscribe — receive battery notifications
/unsubscribe — stop notifications
/run help — list safe commands
/whoami — show your chat id
Admin: /linux, /exec, /adminstatus, /setadmin, /enable_shell, /disable_shell`

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		b.handleSessionInput(ctx, chatID, msg.Text)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.Send(chatID, helpText)
	case "whoami":
		b.Send(chatID, fmt.Sprintf("Your chat id: %d", chatID))
	case "battery":
		b.handleBattery(chatID)
	case "subscribe":
		b.handleSubscribe(chatID)
	case "unsubscribe":
		b.handleUnsubscribe(chatID)
	case "run":
		b.handleRun(ctx, chatID, args)
	case "adminstatus":
		b.handleAdminStatus(chatID)
	case "setadmin":
		b.handleSetAdmin(chatID, args)
	case "enable_shell":
		b.handleShellFlag(chatID, true)
	case "disable_shell":
		b.handleShellFlag(chatID, false)
	case "exec":
		b.handleExec(ctx, chatID, args)
	case "linux":
		b.handleOpenSession(chatID)
	case "pwd":
		b.handlePwd(chatID)
	case "cd":
		b.handleCd(chatID, args)
	case "exit":
		b.handleCloseSession(chatID)
	}
}

func (b *Bot) handleBattery(chatID int64) {
	reading := b.sensors.ReadBattery()
	if !reading.Known() {
		b.Send(chatID, "Could not read the battery state.")
		return
	}
	temp, hasTemp := b.sensors.CPUTemp()
	tempText := "n/a"
	if hasTemp {
		tempText = fmt.Sprintf("%.1f°C", temp)
	}
	b.Send(chatID, fmt.Sprintf("Battery: %d%% (%s)\nCPU temp: %s\nFan: %s",
		reading.Percent, reading.State, tempText, b.sensors.FanStatus()))
}

func (b *Bot) handleSubscribe(chatID int64) {
	if err := b.store.Subscribe(chatID); err != nil {
		b.Send(chatID, "Could not save the subscription, try again.")
		return
	}
	b.Send(chatID, "Subscribed. You will now receive battery notifications.")
}

func (b *Bot) handleUnsubscribe(chatID int64) {
	if err := b.store.Unsubscribe(chatID); err != nil {
		b.Send(chatID, "Could not remove the subscription, try again.")
		return
	}
	b.Send(chatID, "You will no longer receive notifications.")
}

func (b *Bot) handleRun(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.Send(chatID, "Usage: /run <alias>\nAvailable: "+
			strings.Join(shell.AliasNames(), " ")+"\nHint: /run help")
		return
	}
	if args == "help" {
		names := shell.AliasNames()
		var lines []string
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s → %s", name, shell.Aliases[name]))
		}
		b.Send(chatID, "Safe commands:\n"+strings.Join(lines, "\n"))
		return
	}

	alias := strings.Fields(args)[0]
	result, err := b.shell.RunAlias(ctx, alias)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownAlias):
			b.Send(chatID, "Unknown alias. /run help")
		case errors.Is(err, domain.ErrTimedOut):
			b.Send(chatID, fmt.Sprintf("✋ Command exceeded the time limit (%s).", shell.AliasTimeout))
		default:
			b.Send(chatID, "Command failed: "+err.Error())
		}
		return
	}
	b.Send(chatID, formatResult(shell.Aliases[alias], result))
}

func (b *Bot) handleAdminStatus(chatID int64) {
	b.Send(chatID, fmt.Sprintf(
		"Admin chat id (bootstrap): %d\nAdmin chat id (effective): %d\nShell enabled: %v\nYour chat id: %d",
		b.shell.BootstrapAdmin(), b.shell.AdminID(), b.shell.ShellEnabled(), chatID))
}

func (b *Bot) handleSetAdmin(chatID int64, args string) {
	newAdmin, err := strconv.ParseInt(args, 10, 64)
	if err != nil || newAdmin <= 0 {
		b.Send(chatID, "Usage: /setadmin <chat_id>")
		return
	}
	if err := b.shell.SetAdmin(chatID, newAdmin); err != nil {
		b.Send(chatID, "Not enough rights for /setadmin.")
		return
	}
	b.Send(chatID, fmt.Sprintf("OK. Admin chat id is now %d", b.shell.AdminID()))
}

func (b *Bot) handleShellFlag(chatID int64, enable bool) {
	var err error
	if enable {
		err = b.shell.EnableShell(chatID)
	} else {
		err = b.shell.DisableShell(chatID)
	}
	if err != nil {
		b.Send(chatID, "Not enough rights.")
		return
	}
	if enable {
		b.Send(chatID, "Interactive shell: ON.")
	} else {
		b.Send(chatID, "Interactive shell: OFF.")
	}
}

func (b *Bot) handleExec(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.Send(chatID, "Usage: /exec <command>")
		return
	}
	result, err := b.shell.ExecOneOff(ctx, chatID, args)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			b.Send(chatID, "Command unavailable.")
		case errors.Is(err, domain.ErrTimedOut):
			b.Send(chatID, fmt.Sprintf("✋ Command exceeded the time limit (%s).", shell.OneOffTimeout))
		default:
			b.Send(chatID, "Command failed: "+err.Error())
		}
		return
	}
	b.Send(chatID, formatResult(args, result))
}

func (b *Bot) handleOpenSession(chatID int64) {
	switch err := b.shell.Open(chatID); {
	case errors.Is(err, domain.ErrSessionOpen):
		b.Send(chatID, "Shell is already open.\nUse /exit to close it.")
	case errors.Is(err, domain.ErrNotAuthorized):
		b.Send(chatID, "Command unavailable.")
	case err == nil:
		b.Send(chatID, "🔐 Interactive shell opened.\n"+
			"Send messages to execute them as commands.\n"+
			"Commands:\n"+
			"• /cd <path> — change directory\n"+
			"• /pwd — show the current directory\n"+
			"• /exit — close the shell")
	default:
		b.Send(chatID, "Could not open the shell: "+err.Error())
	}
}

func (b *Bot) handlePwd(chatID int64) {
	dir, err := b.shell.Dir(chatID)
	if err != nil {
		b.Send(chatID, "Shell is not open. Use /linux.")
		return
	}
	b.Send(chatID, dir)
}

func (b *Bot) handleCd(chatID int64, args string) {
	dir, err := b.shell.ChangeDir(chatID, args)
	switch {
	case errors.Is(err, domain.ErrSessionNotOpen):
		b.Send(chatID, "Shell is not open. Use /linux.")
	case errors.Is(err, domain.ErrNoSuchDir):
		b.Send(chatID, "No such directory.")
	case err == nil:
		b.Send(chatID, "OK: "+dir)
	default:
		b.Send(chatID, "cd failed: "+err.Error())
	}
}

func (b *Bot) handleCloseSession(chatID int64) {
	if err := b.shell.Close(chatID); err != nil {
		b.Send(chatID, "Shell is not open.")
		return
	}
	b.Send(chatID, "Shell closed.")
}

// handleSessionInput routes free text to the open session, if any.
// Messages from chats without a session are ignored.
func (b *Bot) handleSessionInput(ctx context.Context, chatID int64, text string) {
	if !b.shell.IsOpen(chatID) {
		return
	}
	command := strings.TrimSpace(text)
	if command == "" {
		return
	}

	cwd, _ := b.shell.Dir(chatID)
	result, err := b.shell.ExecSession(ctx, chatID, command)
	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		b.Send(chatID, "Session closed: not enough rights.")
	case errors.Is(err, domain.ErrSessionNotOpen):
		// Raced with /exit; nothing to report.
	case errors.Is(err, domain.ErrTimedOut):
		b.Send(chatID, fmt.Sprintf("✋ Command exceeded the time limit (%s).", shell.SessionTimeout))
	case err == nil:
		b.Send(chatID, fmt.Sprintf("%s$ %s\n\n%s\n(exit %d)", cwd, command, result.Output, result.ExitCode))
	default:
		b.Send(chatID, "Command failed: "+err.Error())
	}
}

// formatResult renders a command result the way a terminal would:
// the command line, its combined output, and the exit code.
func formatResult(command string, result shell.Result) string {
	return fmt.Sprintf("$ %s\n\n%s\n(exit %d)", command, result.Output, result.ExitCode)
}
