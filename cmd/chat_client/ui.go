package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"book_story_service/internal/chatview"
	"book_story_service/internal/session"
	"book_story_service/pkg/logger"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

var (
	colorBg     = tcell.NewRGBColor(0, 0, 48)
	colorBorder = tcell.ColorTeal
	colorTitle  = tcell.ColorWhite
)

const helpText = " Enter:Send | /signin <token> | /signout | /reconnect | Ctrl-C:Quit "

type chatUI struct {
	app      *tview.Application
	provider *session.Provider
	ctrl     *chatview.Controller
	ctx      context.Context

	messages *tview.TextView
	input    *tview.InputField
	status   *tview.TextView

	stopped atomic.Bool
}

func newChatUI(provider *session.Provider) *chatUI {
	u := &chatUI{app: tview.NewApplication(), provider: provider}

	u.messages = tview.NewTextView()
	u.messages.SetBorder(true)
	u.messages.SetBorderColor(colorBorder)
	u.messages.SetBackgroundColor(colorBg)
	u.messages.SetTitleColor(colorTitle)
	u.messages.SetDynamicColors(true)
	u.messages.SetScrollable(true)
	u.messages.SetTitle(title(chatview.View{}))

	u.input = tview.NewInputField()
	u.input.SetLabel("> ")
	u.input.SetFieldWidth(0)
	u.input.SetBackgroundColor(colorBg)
	u.input.SetFieldBackgroundColor(tcell.NewRGBColor(0, 0, 64))
	u.input.SetBorder(true)
	u.input.SetBorderColor(colorBorder)
	u.input.SetTitle(" Message ")

	u.status = tview.NewTextView()
	u.status.SetBackgroundColor(tcell.NewRGBColor(0, 128, 128))
	u.status.SetTextColor(colorTitle)
	u.status.SetTextAlign(tview.AlignCenter)
	u.status.SetText(helpText)

	return u
}

func (u *chatUI) bind(ctx context.Context, ctrl *chatview.Controller) {
	u.ctx = ctx
	u.ctrl = ctrl

	u.input.SetChangedFunc(func(text string) {
		if !strings.HasPrefix(text, "/") {
			ctrl.SetInput(text)
		}
	})
	u.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := u.input.GetText()
		if strings.HasPrefix(text, "/") {
			u.input.SetText("")
			go u.command(text)
			return
		}
		go func() {
			if err := ctrl.Send(ctx); errors.Is(err, chatview.ErrEmptyMessage) {
				u.notify(err)
			}
		}()
	})
}

func (u *chatUI) command(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/signin":
		if len(fields) < 2 {
			u.notify(errors.New("usage: /signin <token>"))
			return
		}
		u.signIn(fields[1])
	case "/signout":
		u.provider.SignOut()
	case "/reconnect":
		_ = u.ctrl.Reconnect(u.ctx)
	default:
		u.notify(fmt.Errorf("unknown command %s", fields[0]))
	}
}

func (u *chatUI) signIn(tokenStr string) {
	if _, err := u.provider.SignIn(tokenStr); err != nil {
		logger.Log.Warn("sign in failed", zap.Error(err))
		u.notify(fmt.Errorf("sign in: %w", err))
	}
}

func (u *chatUI) run() error {
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(u.messages, 0, 1, false).
		AddItem(u.input, 3, 0, true).
		AddItem(u.status, 1, 0, false)
	layout.SetBackgroundColor(colorBg)

	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyPgUp:
			row, col := u.messages.GetScrollOffset()
			u.messages.ScrollTo(row-10, col)
			return nil
		case tcell.KeyPgDn:
			row, col := u.messages.GetScrollOffset()
			u.messages.ScrollTo(row+10, col)
			return nil
		}
		return event
	})

	defer u.stopped.Store(true)
	return u.app.SetRoot(layout, true).EnableMouse(false).Run()
}

// queue drops drawing once the ui loop has exited
func (u *chatUI) queue(fn func()) {
	if u.stopped.Load() {
		return
	}
	u.app.QueueUpdateDraw(fn)
}

func (u *chatUI) stop() {
	u.app.Stop()
}

// update runs on controller goroutines; drawing is queued onto the ui loop
func (u *chatUI) update(view chatview.View) {
	u.queue(func() {
		_, _, width, _ := u.messages.GetInnerRect()
		u.messages.SetTitle(title(view))
		u.messages.SetText(renderMessages(view.Messages, width))
		if view.Input == "" && u.input.GetText() != "" && !strings.HasPrefix(u.input.GetText(), "/") {
			u.input.SetText("")
		}
	})
}

func (u *chatUI) scrollToEnd() {
	u.queue(func() {
		u.messages.ScrollToEnd()
	})
}

func (u *chatUI) notify(err error) {
	u.queue(func() {
		u.status.SetText(" [red]" + tview.Escape(err.Error()) + "[-] |" + helpText)
	})
}

func title(view chatview.View) string {
	switch view.State {
	case chatview.StateSubscribed:
		return fmt.Sprintf(" %s ─ ● %d online ", view.Identity, view.OnlineCount)
	case chatview.StateConnecting:
		return fmt.Sprintf(" %s ─ connecting… ", view.Identity)
	case chatview.StateClosed:
		return " disconnected ─ /reconnect or /signin "
	default:
		return " signed out ─ /signin <token> "
	}
}

// renderMessages lays messages out for a view width columns wide:
// others on the left under their label, mine right aligned.
func renderMessages(msgs []chatview.RenderedMessage, width int) string {
	if width < 20 {
		width = 80
	}

	var sb strings.Builder
	for _, m := range msgs {
		stamp := m.CreatedAt.Local().Format("15:04")
		text := tview.Escape(m.Content)
		if m.Mine {
			line := fmt.Sprintf("[white]%s[-] [gray]%s[-]", text, stamp)
			sb.WriteString(padLeft(line, width))
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(m.Label)))
		sb.WriteString(fmt.Sprintf("[gray]%s[-] %s\n", stamp, text))
	}
	return sb.String()
}

func padLeft(tagged string, width int) string {
	pad := width - tview.TaggedStringWidth(tagged)
	if pad <= 0 {
		return tagged
	}
	return strings.Repeat(" ", pad) + tagged
}
