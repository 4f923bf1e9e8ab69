package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"book_story_service/internal/chatview"
	"book_story_service/internal/realtime"
	"book_story_service/internal/session"
	"book_story_service/pkg/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	server := pflag.StringP("server", "s", "http://localhost:8082", "chat_service base url")
	room := pflag.StringP("room", "r", "online-users", "chat room")
	tokenStr := pflag.StringP("token", "t", os.Getenv("BOOK_STORY_TOKEN"), "session token from /member/verify")
	logPath := pflag.String("log", "./logs/chat_client/client.log", "log file")
	debug := pflag.Bool("debug", false, "debug logging")
	pflag.Parse()

	logger.Log = logger.InitializeFile("chat_client", *logPath)
	defer logger.Log.Sync()
	logger.Log.SetDebugMode(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := strings.TrimRight(*server, "/")
	provider := session.NewProvider()
	ui := newChatUI(provider)

	ctrl := chatview.NewController(
		chatview.NewHTTPStore(base, provider.Token),
		realtime.WebsocketDialer(websocketURL(base), provider.Token),
		*room,
		chatview.WithOnChange(ui.update),
		chatview.WithOnScroll(ui.scrollToEnd),
		chatview.WithNotifier(ui.notify),
	)
	ui.bind(ctx, ctrl)

	unbind := ctrl.Bind(ctx, provider)
	defer unbind()
	defer ctrl.Close()

	if *tokenStr != "" {
		go ui.signIn(*tokenStr)
	}

	go func() {
		<-ctx.Done()
		ui.stop()
	}()

	if err := ui.run(); err != nil {
		logger.Log.Error("chat client stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// websocketURL maps http(s)://host to ws(s)://host/ws
func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}
