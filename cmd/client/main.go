package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"

	"chat-backend/domain"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8000"`
	RoomID        int    `env:"CHAT_ROOM_ID,default=1"`
	Token         string `env:"CHAT_TOKEN,required=true"`
	UserID        int    `env:"CHAT_USER_ID,default=0"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects one websocket to a room, prints everything the server
// pushes and sends each stdin line as a chat message.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("ws://%s/ws/%d?token=%s", config.ServerAddress, config.RoomID, config.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerAddress, err)
	}
	defer func() {
		fmt.Println("Closing connection...")
		_ = conn.Close()
	}()

	fmt.Printf(">>> Connected to %s, room %d (Ctrl+C to quit)\n", config.ServerAddress, config.RoomID)

	// Reception loop; runs until the server closes or the user quits.
	received := make(chan error, 1)
	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				received <- err
				return
			}
			var msg domain.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				// Plain-text server notices (e.g. the connection ack)
				fmt.Printf("*** %s\n", payload)
				continue
			}
			at := time.UnixMilli(msg.InsertedDate).Format(time.TimeOnly)
			fmt.Printf("[%s] user %d: %s\n", at, msg.UserID, msg.Text)
		}
	}()

	// Sending loop; each stdin line becomes one frame.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := scanner.Text()
			if text == "" {
				continue
			}
			frame, err := json.Marshal(domain.Message{UserID: config.UserID, Text: text})
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Stopping client...")
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return exitOK, nil
	case err := <-received:
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("connection error: %w", err)
	}
}
