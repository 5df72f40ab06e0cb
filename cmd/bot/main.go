package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/fardannozami/crimewatch/internal/app/admin"
	"github.com/fardannozami/crimewatch/internal/app/prediction"
	"github.com/fardannozami/crimewatch/internal/app/registry"
	"github.com/fardannozami/crimewatch/internal/app/reputation"
	"github.com/fardannozami/crimewatch/internal/app/route"
	"github.com/fardannozami/crimewatch/internal/app/session"
	"github.com/fardannozami/crimewatch/internal/app/usecase"
	"github.com/fardannozami/crimewatch/internal/config"
	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
	"github.com/fardannozami/crimewatch/internal/infra/sqlite"
	"github.com/fardannozami/crimewatch/internal/infra/wa"
)

// statsFunc adapts the gateway's stats read to domain errors.
type statsFunc func(ctx context.Context) (*domain.Stats, error)

func (f statsFunc) Stats(ctx context.Context) (*domain.Stats, error) { return f(ctx) }

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Local storage
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create data directory")
	}
	// WAL and busy timeout avoid "database is locked" with whatsmeow on the same file
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.SQLitePath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	tokens := sqlite.NewTokenStore(db)
	if err := tokens.InitTable(ctx); err != nil {
		logger.Fatal().Err(err).Msg("init client_state table")
	}

	// 4. API gateway and session
	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger)
	if err := client.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("base_url", cfg.APIBaseURL).Msg("api not reachable yet")
	}

	sessions := session.NewStore(client, tokens, logger)
	authed := client.WithTokenSource(sessions)

	if sess := sessions.Restore(ctx); sess.Authenticated() {
		logger.Info().Str("user_id", sess.Identity.ID).Msg("session restored")
	} else {
		login(ctx, sessions, cfg, logger)
	}

	// 5. Core components
	reports := registry.New(authed, sessions, logger)
	defer reports.Close()
	if err := reports.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial report load")
	}
	repView := reputation.NewView(authed, logger)

	predictions := prediction.New(authed, sessions, logger)
	directory := admin.NewDirectory(authed, sessions)

	guard := route.NewGuard(usecase.ViewLogin, usecase.ProtectedViews...)
	newNav := func(senderID string) usecase.Navigator {
		nav := route.NewNavigator(guard, sessions, usecase.ViewHelp)
		nav.OnRedirect(func(from, to route.View) {
			logger.Info().Str("sender", senderID).Str("from", string(from)).Str("to", string(to)).Msg("session ended, view redirected")
		})
		return nav
	}

	// 6. Use Cases
	stats := statsFunc(func(ctx context.Context) (*domain.Stats, error) {
		s, err := authed.Stats(ctx)
		if err != nil {
			return nil, api.AsDomain(err, domain.KindLoad, "Failed to load community stats")
		}
		return s, nil
	})
	handleMessageUC := usecase.NewHandleMessageUsecase(newNav, sessions, usecase.Commands{
		Submit:        usecase.NewReportActivityUsecase(reports),
		Reports:       usecase.NewListReportsUsecase(reports),
		Vote:          usecase.NewVoteReportUsecase(reports),
		Leaderboard:   usecase.NewGetLeaderboardUsecase(repView),
		Reputation:    usecase.NewGetReputationUsecase(repView, sessions),
		Dashboard:     usecase.NewGetDashboardUsecase(stats, repView),
		Predict:       usecase.NewPredictUsecase(predictions),
		MyPredictions: usecase.NewMyPredictionsUsecase(predictions),
		Users:         usecase.NewListUsersUsecase(directory),
	}, cfg.CommandsPerMinute)
	defer handleMessageUC.Close()

	// An expired session is renewed with the configured account. Senders that
	// were turned away get their view back; they resend the command themselves.
	unsub := sessions.Subscribe(func(s domain.Session) {
		if s.State != domain.StateExpired {
			return
		}
		go func() {
			if login(ctx, sessions, cfg, logger) {
				logger.Info().Int("senders", handleMessageUC.ResumeAll()).Msg("navigation restored after re-login")
			}
		}()
	})
	defer unsub()

	// 7. WhatsApp Service
	waService := wa.NewService(cfg.SQLitePath, wa.Options{
		GroupID: cfg.GroupID,
		Pacing: wa.Pacing{
			MinDelay: time.Duration(cfg.ReplyDelayMinMs) * time.Millisecond,
			MaxDelay: time.Duration(cfg.ReplyDelayMaxMs) * time.Millisecond,
			Typing:   cfg.ShowTyping,
		},
		Resolver: sqlite.NewContactResolver(db),
	}, logger.With().Str("component", "whatsapp").Logger())

	waService.SetHandler(func(ctx context.Context, msg wa.Incoming) (string, error) {
		return handleMessageUC.Execute(ctx, msg.SenderID, msg.SenderName, msg.Text)
	})

	// 8. Initialize Client (DB, Device, etc) - DO NOT CONNECT YET
	if err := waService.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initialize whatsapp service")
	}

	// 9. Connect / Login Logic
	if !waService.IsLoggedIn() {
		if cfg.BotPhone != "" {
			if err := waService.Connect(); err != nil {
				logger.Fatal().Err(err).Msg("connect for pairing")
			}

			code, err := waService.Pair(ctx, cfg.BotPhone)
			if err != nil {
				logger.Error().Err(err).Str("phone", cfg.BotPhone).Msg("generate pair code")
			} else {
				logger.Info().Str("code", code).Msg("PAIR CODE: verify it on WhatsApp (Linked Devices > Link with phone number)")
			}
		} else {
			logger.Info().Msg("Not logged in. BOT_PHONE not set. Printing QR...")
			if err := waService.PrintQR(ctx); err != nil {
				logger.Fatal().Err(err).Msg("qr login")
			}
		}
	} else {
		if err := waService.Connect(); err != nil {
			logger.Fatal().Err(err).Msg("connect")
		}
		logger.Info().Msg("Client is already logged in.")
	}

	logger.Info().Msg("Bot is running... Press Ctrl+C to exit.")

	<-ctx.Done()

	logger.Info().Msg("Shutting down...")
	waService.Disconnect()
}

// login signs in with the configured bot account, if there is one.
func login(ctx context.Context, sessions *session.Store, cfg config.Config, logger zerolog.Logger) bool {
	if cfg.BotEmail == "" || cfg.BotPassword == "" {
		logger.Warn().Msg("no session and BOT_EMAIL/BOT_PASSWORD not set, protected commands are disabled")
		return false
	}
	sess, err := sessions.Login(ctx, domain.Credentials{Email: cfg.BotEmail, Password: cfg.BotPassword})
	if err != nil {
		logger.Error().Err(err).Str("email", cfg.BotEmail).Msg("bot login failed")
		return false
	}
	logger.Info().Str("user_id", sess.Identity.ID).Msg("bot signed in")
	return true
}
