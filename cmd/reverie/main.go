// Command reverie is the interactive CLI: type thoughts, get responses,
// review what comes due.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/scrypster/reverie/internal/agent"
	"github.com/scrypster/reverie/internal/config"
	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/internal/storage/postgres"
	"github.com/scrypster/reverie/internal/storage/sqlite"
)

func main() {
	log.SetFlags(0)

	cfg := config.Load()
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	oracleCfg := oracleConfig(cfg)
	generator, err := oracle.NewTextGenerator(oracleCfg)
	if err != nil {
		log.Fatalf("Failed to create text generator: %v", err)
	}
	embedder, err := oracle.NewEmbeddingGenerator(oracleCfg)
	if err != nil {
		log.Fatalf("Failed to create embedding generator: %v", err)
	}

	gateway, index, err := openStorage(cfg, embedder)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer gateway.Close()

	profiles := profile.NewService(cfg.Agent.ProfilePath)

	a := agent.New(gateway, index, generator, profiles, agent.Options{
		SynthesisWorkers: cfg.Agent.SynthesisWorkers,
	})
	defer a.Close()

	fmt.Println("reverie - what's on your mind? (/help for commands)")
	repl(context.Background(), a)
}

func repl(ctx context.Context, a *agent.Agent) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if !runCommand(ctx, a, line) {
				return
			}
			continue
		}

		result, err := a.Process(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(result.Response)
	}
}

// runCommand handles slash commands; returns false to exit the REPL.
func runCommand(ctx context.Context, a *agent.Agent, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return false

	case "/help":
		fmt.Println(`/search <query>      keyword search over saved thoughts
/resurface           thoughts due for review
/review <id> <easy|medium|hard>
/briefing            daily digest
/stats               store counts
/quit                exit`)

	case "/search":
		if arg == "" {
			fmt.Println("usage: /search <query>")
			break
		}
		thoughts, err := a.Search(ctx, arg, 10)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		for _, t := range thoughts {
			fmt.Printf("[%s] %s\n", t.ID, t.Summary)
		}
		if len(thoughts) == 0 {
			fmt.Println("no matches")
		}

	case "/resurface":
		due, err := a.ResurfaceQueue(ctx, 5)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		for _, t := range due {
			fmt.Printf("[%s] %s\n", t.ID, t.Summary)
		}
		if len(due) == 0 {
			fmt.Println("nothing due for review")
		}

	case "/review":
		id, rating, _ := strings.Cut(arg, " ")
		rating = strings.TrimSpace(rating)
		if id == "" || rating == "" {
			fmt.Println("usage: /review <id> <easy|medium|hard>")
			break
		}
		thought, err := a.MarkReviewed(ctx, id, rating)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Printf("reviewed %s (count %d, ease %.2f), next on %s\n",
			thought.ID, thought.ReviewCount, thought.EaseFactor,
			agent.NextReviewAt(thought).Format("2006-01-02"))

	case "/briefing":
		text, err := a.Briefing(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Println(text)

	case "/stats":
		stats, err := a.Stats(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Printf("thoughts: %d  entities: %d  conversation messages: %d  pending tasks: %d\n",
			stats.Thoughts, stats.Entities, stats.Conversations, stats.PendingTasks)

	default:
		fmt.Printf("unknown command %s (/help for commands)\n", cmd)
	}
	return true
}

func oracleConfig(cfg *config.Config) oracle.ClientConfig {
	provider, apiKey, model, embedModel, baseURL := cfg.Oracle.Merged()
	return oracle.ClientConfig{
		Provider:   provider,
		APIKey:     apiKey,
		Model:      model,
		EmbedModel: embedModel,
		BaseURL:    baseURL,
	}
}

func openStorage(cfg *config.Config, embedder storage.Embedder) (storage.Gateway, storage.VectorIndex, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		gw, err := postgres.NewGateway(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return gw, postgres.NewVectorIndex(gw, embedder), nil
	default:
		gw, err := sqlite.NewGateway(cfg.Storage.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return gw, sqlite.NewVectorIndex(gw, embedder), nil
	}
}
