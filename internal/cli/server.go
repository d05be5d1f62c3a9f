package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/poalrom/big-web-quiz/internal/app"
	"github.com/poalrom/big-web-quiz/internal/broadcast"
	"github.com/poalrom/big-web-quiz/internal/config"
	"github.com/poalrom/big-web-quiz/internal/domain"
	"github.com/poalrom/big-web-quiz/internal/infra/memory"
	pgstore "github.com/poalrom/big-web-quiz/internal/infra/postgres"
	redisstore "github.com/poalrom/big-web-quiz/internal/infra/redis"
	transport "github.com/poalrom/big-web-quiz/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var questions app.QuestionStore
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		questions = pgstore.NewQuestionStore(pool)
	} else {
		store := memory.NewQuestionStore()
		seedQuestions(ctx, store)
		questions = store
	}

	var users app.UserStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		users = redisstore.NewUserStore(client)
	} else {
		users = memory.NewUserStore()
	}

	if err := ensureAdmins(ctx, users, cfg.Quiz.Admins); err != nil {
		return err
	}

	quiz := app.NewQuiz()
	participants := broadcast.NewChannel("participant", cfg.Quiz.ConnectionLimit)
	presentation := broadcast.NewChannel("presentation", cfg.Quiz.ConnectionLimit)
	service := app.NewService(quiz, questions, users, participants, presentation, cfg.Quiz.NaiveLogin)
	service.InitialBroadcast()

	handlers := transport.NewHandlers(service, participants, presentation)

	// No write timeout: SSE, long-poll and websocket responses stay open
	// for the life of the client connection.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting big-web-quiz on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-stop:
			log.Println("shutting down server...")
		case <-ctx.Done():
			log.Println("context canceled, shutting down server...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ensureAdmins grants the admin role to the configured user ids, creating
// the users if they don't exist yet.
func ensureAdmins(ctx context.Context, users app.UserStore, ids []string) error {
	for _, id := range ids {
		user, err := users.FindByID(ctx, id)
		if err != nil {
			user = domain.User{ID: id, Name: id, Track: domain.TrackAll}
		}
		user.Admin = true
		if err := users.Save(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

func seedQuestions(ctx context.Context, store app.QuestionStore) {
	for _, update := range sampleQuestions() {
		if _, err := store.Upsert(ctx, update); err != nil {
			log.Printf("seed question %s: %v", update.Key, err)
		}
	}
	log.Printf("seeded %d sample questions (in-memory store)", len(sampleQuestions()))
}

// sampleQuestions keeps the in-memory mode usable out of the box; swap in
// Postgres for real content.
func sampleQuestions() []domain.QuestionUpdate {
	return []domain.QuestionUpdate{
		{
			Key:    "warmup-1",
			Title:  "Question 1",
			Text:   "Which of these is a valid way to create an empty object?",
			Track:  domain.TrackJS,
			Scored: true,
			Answers: []domain.Answer{
				{Text: "{}", Correct: true},
				{Text: "Object.create(null)", Correct: true},
				{Text: "new Object[]"},
			},
			Multiple: true,
		},
		{
			Key:    "warmup-2",
			Title:  "Question 2",
			Text:   "Which property controls the stacking order of positioned elements?",
			Track:  domain.TrackCSS,
			Scored: true,
			Answers: []domain.Answer{
				{Text: "z-index", Correct: true},
				{Text: "stack-order"},
				{Text: "layer"},
			},
		},
		{
			Key:   "poll-1",
			Title: "Poll",
			Text:  "Tabs or spaces?",
			Track: domain.TrackAll,
			Answers: []domain.Answer{
				{Text: "Tabs"},
				{Text: "Spaces"},
			},
		},
	}
}
