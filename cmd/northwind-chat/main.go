package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"northwind-chat/internal/analytics"
	"northwind-chat/internal/chat"
	"northwind-chat/internal/config"
	"northwind-chat/internal/store"
	"northwind-chat/internal/tui"
	"northwind-chat/internal/viz"
)

func main() {
	question := flag.String("q", "", "ask one question, print the answer and exit")
	flag.Parse()

	cfg := config.Load()
	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatalf("failed to load render profile %s: %v", cfg.ProfilePath, err)
	}
	dispatcher := viz.NewDispatcher(prof.RenderOptions())

	conv := store.NewMemoryStore()
	coord := chat.NewCoordinator(analytics.NewService(cfg, prof), conv, chat.WithApology(prof.Apology))

	if *question != "" {
		os.Exit(ask(coord, conv, dispatcher, *question))
	}

	f, err := tea.LogToFile(cfg.LogFile, "northwind")
	if err != nil {
		log.Fatalf("failed to open log file %s: %v", cfg.LogFile, err)
	}
	defer f.Close()
	if cfg.Debug {
		log.Printf("[config] analytics=%q direct=%v model=%s profile=%s", cfg.AnalyticsURL, cfg.DirectMode(), cfg.Model, cfg.ProfilePath)
	}

	m := tui.New(coord, conv, dispatcher)
	defer m.Close()
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Printf("terminal error: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ask runs a single turn without the interactive screen.
func ask(coord *chat.Coordinator, conv *store.MemoryStore, dispatcher *viz.Dispatcher, question string) int {
	if !coord.Submit(question) {
		fmt.Fprintln(os.Stderr, "error: empty question")
		return 2
	}
	coord.Wait()
	reply, _ := conv.State().Last()
	fmt.Println(tui.RenderMessage(reply, dispatcher, 0))
	if reply.Failed {
		return 1
	}
	return 0
}
