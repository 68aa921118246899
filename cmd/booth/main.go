// Command booth runs the generation workflow as a single interactive terminal
// session: it prompts for the API key, photo, style and prompt, then prints
// progress and the final result.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/infra"
	"avatarbooth/internal/presenter"
	"avatarbooth/internal/providers/lightx"
	"avatarbooth/internal/validate"
	"avatarbooth/internal/workflow"
)

func main() {
	var baseURL string
	flag.StringVar(&baseURL, "base-url", "", "LightX API base URL (defaults to the production endpoint)")
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)
	locale := "en"

	apiKey := ask(reader, "LightX API key: ")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "an API key is required")
		os.Exit(1)
	}

	path := ask(reader, "Path to your photo (JPG/JPEG/PNG, under 2MB): ")
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
		os.Exit(1)
	}
	if _, err := validate.Image(path, data); err != nil {
		fmt.Fprintln(os.Stderr, presenter.Failure(locale, err))
		os.Exit(1)
	}

	styleRaw := ask(reader, "Style [avatar/cartoon] (default avatar): ")
	if styleRaw == "" {
		styleRaw = string(domain.StyleAvatar)
	}
	style, err := domain.ParseStyle(styleRaw)
	if err != nil {
		fmt.Fprintln(os.Stderr, presenter.Failure(locale, err))
		os.Exit(1)
	}

	prompt := ask(reader, fmt.Sprintf("Prompt (enter for default):\n  %q\n> ", domain.DefaultPrompt(style)))

	// Progress lines replace structured logs in the terminal session.
	logger := infra.NewLogger("cli").Level(zerolog.Disabled)
	client := lightx.NewClient(lightx.Options{BaseURL: baseURL, Logger: &logger})
	runner := workflow.NewRunner(workflow.Options{API: client, Logger: &logger})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	outcome, err := runner.Run(ctx, workflow.Input{
		APIKey:   apiKey,
		Filename: path,
		Data:     data,
		Style:    style,
		Prompt:   prompt,
	}, func(ev workflow.Event) {
		switch {
		case ev.Attempt > 0 && ev.Status != "":
			fmt.Printf("  poll attempt %d: %s\n", ev.Attempt, ev.Status)
		case ev.Attempt > 0:
			fmt.Printf("  poll attempt %d: %s\n", ev.Attempt, ev.Message)
		default:
			fmt.Printf("%s...\n", ev.Stage)
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, presenter.Failure(locale, err))
		os.Exit(1)
	}

	fmt.Println(presenter.Outcome(locale, *outcome))
	if outcome.State == domain.OutcomeSucceeded {
		fmt.Printf("Output: %s\n", outcome.OutputURL)
	}
	if outcome.State == domain.OutcomeTimeout && outcome.OrderID != "" {
		fmt.Printf("Order %s may still finish remotely.\n", outcome.OrderID)
	}
	if outcome.State == domain.OutcomeFailed {
		os.Exit(1)
	}
}

func ask(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
