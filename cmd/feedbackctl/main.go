// Command feedbackctl drives a running feedback hub from the terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func usage() {
	fmt.Println("feedbackctl usage:")
	fmt.Println("  feedbackctl [-server URL] submit -message TEXT [-source S] [-product P] [-wait]")
	fmt.Println("  feedbackctl [-server URL] run RUN_ID")
	fmt.Println("  feedbackctl [-server URL] retry RUN_ID")
	fmt.Println("  feedbackctl [-server URL] list [-product P]")
	fmt.Println("  feedbackctl [-server URL] ask QUESTION...")
	fmt.Println("  feedbackctl [-server URL] chat")
}

func main() {
	server := flag.String("server", envOr("FEEDBACK_HUB_URL", "http://localhost:8081"), "feedback hub base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newHubClient(*server, *timeout)
	args := flag.Args()[1:]

	var err error
	switch flag.Arg(0) {
	case "submit":
		err = submitCmd(ctx, client, args)
	case "run":
		err = runCmd(ctx, client, args)
	case "retry":
		err = retryCmd(ctx, client, args)
	case "list":
		err = listCmd(ctx, client, args)
	case "ask":
		err = askCmd(ctx, client, args)
	case "chat":
		err = chatCmd(ctx, *server)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func submitCmd(ctx context.Context, client *hubClient, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	message := fs.String("message", "", "feedback text")
	source := fs.String("source", "", "where the feedback came from")
	product := fs.String("product", "", "product the feedback is about")
	wait := fs.Bool("wait", false, "poll until the run finishes")
	_ = fs.Parse(args)

	handle, err := client.Submit(ctx, *message, *source, *product)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s accepted (%s)\n", handle.RunID, handle.Status)

	if !*wait {
		return nil
	}
	run, err := client.Wait(ctx, handle.RunID, 500*time.Millisecond)
	if err != nil {
		return err
	}
	printRun(run)
	return nil
}

func runCmd(ctx context.Context, client *hubClient, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run needs exactly one RUN_ID")
	}
	run, err := client.Run(ctx, args[0])
	if err != nil {
		return err
	}
	printRun(run)
	return nil
}

func retryCmd(ctx context.Context, client *hubClient, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("retry needs exactly one RUN_ID")
	}
	handle, err := client.Retry(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Run %s queued again (%s)\n", handle.RunID, handle.Status)
	return nil
}

func listCmd(ctx context.Context, client *hubClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	product := fs.String("product", "", "only this product (exact match); empty or \"all\" for everything")
	_ = fs.Parse(args)

	dash, err := client.List(ctx, *product)
	if err != nil {
		return err
	}

	for _, item := range dash.Items {
		fmt.Printf("- [%v] %v (%v): %v\n", item["product"], item["source"], firstOf(item, "created_at", "timestamp"), item["summary"])
	}

	a := dash.Aggregates
	fmt.Printf("\nTotal: %d  Negative: %d  Critical: %d\n", a.Total, a.Negative, a.Critical)
	printCounts("Source", a.BySource)
	printCounts("Sentiment", a.BySentiment)
	printCounts("Urgency", a.ByUrgency)
	printCounts("Theme", a.ByTheme)
	return nil
}

func askCmd(ctx context.Context, client *hubClient, args []string) error {
	answer, err := client.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// chatCmd runs an interactive websocket session; each stdin line is a question.
func chatCmd(ctx context.Context, server string) error {
	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/chat"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("error connecting to %s: %w", u.String(), err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame struct {
				Type    string          `json:"type"`
				Content json.RawMessage `json:"content"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			printFrame(frame.Type, frame.Content)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("Connected. Type a question, /reset to clear the session, /history to show it. Ctrl-C quits.")
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		case <-done:
			return fmt.Errorf("connection closed by server")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(chatFrame(line)); err != nil {
				return fmt.Errorf("error sending message: %w", err)
			}
		}
	}
}

func chatFrame(line string) map[string]any {
	switch strings.TrimSpace(line) {
	case "/reset":
		return map[string]any{"type": "reset"}
	case "/history":
		return map[string]any{"type": "history"}
	}
	return map[string]any{"type": "chat", "content": line}
}

func printFrame(typ string, content json.RawMessage) {
	switch typ {
	case "chat":
		var turn struct {
			Content string `json:"content"`
		}
		_ = json.Unmarshal(content, &turn)
		fmt.Printf("assistant> %s\n", turn.Content)
	case "error":
		var e apiError
		_ = json.Unmarshal(content, &e)
		fmt.Printf("error> %s: %s\n", e.Code, e.Message)
	case "history":
		var turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		_ = json.Unmarshal(content, &turns)
		for _, t := range turns {
			fmt.Printf("  %s: %s\n", t.Role, t.Content)
		}
	case "reset":
		fmt.Println("(session cleared)")
	}
}

func printRun(run runStatus) {
	fmt.Printf("Run %s: %s (attempts: %d)\n", run.RunID, run.Status, run.Attempts)
	if run.RecordID != "" {
		fmt.Printf("  record: %s\n", run.RecordID)
	}
	if run.Status == "failed" {
		fmt.Printf("  failed at %s: %s\n", run.FailedStage, run.Reason)
	}
}

func printCounts(title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	fmt.Printf("%-10s %s\n", title+":", strings.Join(parts, " "))
}

func firstOf(item map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := item[k]; ok {
			return v
		}
	}
	return ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
