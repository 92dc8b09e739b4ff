package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sihabsafin/pagewise/api"
	"github.com/sihabsafin/pagewise/chat"
	"github.com/sihabsafin/pagewise/config"
	"github.com/sihabsafin/pagewise/embeddings"
	"github.com/sihabsafin/pagewise/index"
	"github.com/sihabsafin/pagewise/ingestion"
	"github.com/sihabsafin/pagewise/llm"
	"github.com/sihabsafin/pagewise/prompt"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("PAGEWISE_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	switch os.Args[1] {
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error().Str("command", os.Args[1]).Msg("unknown command")
		printUsage()
		os.Exit(1)
	}
}

func newSession(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*chat.Session, error) {
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}

	embedder, err := embeddings.Default(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	idx, err := index.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("index setup: %w", err)
	}

	generator, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	return chat.NewSession(cfg, embedder, idx, generator, logger), nil
}

func ingestFiles(ctx context.Context, session *chat.Session, logger zerolog.Logger, paths []string) {
	var sources []ingestion.Source
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("open document")
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("stat document")
		}

		sources = append(sources, ingestion.Source{
			Name:   filepath.Base(path),
			Size:   info.Size(),
			Reader: f,
		})
	}

	for _, doc := range session.Ingest(ctx, sources) {
		if doc.Status == ingestion.StatusFailed {
			logger.Error().Str("document", doc.Name).Str("reason", doc.Error).Msg("ingestion failed")
			continue
		}
		logger.Info().Str("document", doc.Name).Int("pages", doc.Pages).Int("chunks", doc.Chunks).Msg("document indexed")
	}
}

// chatCmd ingests the given PDFs and drops into an interactive question
// loop, streaming tokens to stdout as they arrive.
func chatCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	k := flags.Int("k", cfg.Retrieval.K, "number of passages to retrieve per question (1-10)")
	strict := flags.Bool("strict", false, "answer only from document context")
	modeName := flags.String("mode", "factual", "answer mode: factual, detailed, bullets, compare, executive")
	showSources := flags.Bool("sources", true, "print source citations after each answer")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse chat flags")
	}

	mode, err := prompt.ParseMode(*modeName)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse mode")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := newSession(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("session setup")
	}

	if flags.NArg() > 0 {
		ingestFiles(ctx, session, logger, flags.Args())
	}

	fmt.Println("Ask questions about your documents. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := session.Ask(ctx, chat.Query{
			Question: question,
			K:        *k,
			Strict:   *strict,
			Mode:     mode,
		}, func(token string) {
			fmt.Print(token)
		})
		if err != nil {
			logger.Error().Err(err).Msg("query failed")
			continue
		}
		fmt.Println()

		if *showSources && len(answer.Citations) > 0 {
			fmt.Println("\nSources:")
			for i, c := range answer.Citations {
				fmt.Printf("%d. %s, page %d (relevance %.3f)\n", i+1, c.Filename, c.Page, c.Score)
			}
		}
		fmt.Println()
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal().Err(err).Msg("read question")
	}
}

func serveCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", ":8080", "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse serve flags")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := newSession(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("session setup")
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, session, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", *addr).Msg("serving HTTP API")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server")
	}
}

func clearCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse clear flags")
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all indexed document data. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatal().Err(err).Msg("read confirmation")
			}
			logger.Info().Msg("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Info().Msg("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := newSession(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("session setup")
	}

	_ = session.Clear(ctx)
	logger.Info().Msg("knowledge base cleared")
}

func printUsage() {
	fmt.Println("Usage: pagewise <command> [options] [files...]")
	fmt.Println("Commands:")
	fmt.Println("  chat     Ingest the given PDFs and answer questions interactively")
	fmt.Println("  serve    Expose the pipeline over an HTTP API")
	fmt.Println("  clear    Remove all indexed document data")
}
