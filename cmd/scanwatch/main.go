// Scanwatch - follow a running scanner from the terminal
//
// Prints every decoded barcode and error message as the scanner reports
// them. With -reset it restarts the scan session first.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-scanner/internal/httpc"
	"github.com/teslashibe/go-scanner/pkg/scanner/state"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Scanner base URL")
	reset := flag.Bool("reset", false, "Reset the scanner before watching")
	once := flag.Bool("once", false, "Exit after the first decoded barcode")
	asJSON := flag.Bool("json", false, "Print raw state JSON")
	flag.Parse()

	client, err := httpc.New(*addr)
	if err != nil {
		stdlog.Fatalf("❌ %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *reset {
		st, err := client.Reset(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Reset: %s\n", describe(st, err))
		} else {
			fmt.Println("🔄 Scanner reset")
		}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, client.StateURL(), nil)
	if err != nil {
		stdlog.Fatalf("❌ Connect %s: %v", client.StateURL(), err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	var last state.State
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "❌ Connection lost: %v\n", err)
				os.Exit(1)
			}
			return
		}

		var st state.State
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}

		if *asJSON {
			fmt.Println(string(data))
		} else {
			printChange(last, st)
		}
		last = st

		if *once && st.LastResult != nil {
			return
		}
	}
}

func printChange(prev, st state.State) {
	if st.SessionID != prev.SessionID {
		if st.Scanning {
			fmt.Printf("📷 Session %s\n", st.SessionID)
		} else {
			fmt.Println("⏹  Not scanning")
		}
	}
	if st.LastResult != nil && (prev.LastResult == nil || st.LastResult.Text != prev.LastResult.Text) {
		fmt.Printf("✅ %s (%s)\n", st.LastResult.Text, st.LastResult.Format)
	}
	if st.LastError != "" && st.LastError != prev.LastError {
		fmt.Printf("⚠️  %s\n", st.LastError)
	}
}

func describe(st state.State, err error) string {
	if st.LastError != "" {
		return st.LastError
	}
	return err.Error()
}
