package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Dosada05/tournament-join/api"
	"github.com/Dosada05/tournament-join/config"
	"github.com/Dosada05/tournament-join/services"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.String("base_url", cfg.APIBaseURL))

	// Инициализация HTTP-клиента и ресурсов API
	client := api.NewClient(cfg.APIBaseURL, cfg.AccessToken, cfg.RequestTimeout, logger)
	tournamentAPI := api.NewTournamentAPI(client)
	teamAPI := api.NewTeamAPI(client)
	userAPI := api.NewUserAPI(client)
	walletAPI := api.NewWalletAPI(client)
	joinAPI := api.NewJoinAPI(client)

	// Инициализация сервисов
	identity := services.NewIdentityService(cfg.AccessToken, userAPI, logger)
	registry := services.NewTeamRegistry(teamAPI, logger)
	eligibility := services.NewEligibilityService(cfg.WalletTopUpURL)
	joinService := services.NewJoinService(
		tournamentAPI,
		joinAPI,
		walletAPI,
		identity,
		registry,
		eligibility,
		services.KeywordConfig{Stop: cfg.StopKeywords, Shape: cfg.ShapeKeywords},
		logger,
	)
	logger.Info("services initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], joinService, identity, registry, client, logger); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	args []string,
	joinService *services.JoinService,
	identity *services.IdentityService,
	registry *services.TeamRegistry,
	client *api.Client,
	logger *slog.Logger,
) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tournament-join <solo|team|teams|watch> ...")
	}

	switch args[0] {
	case "solo":
		if len(args) != 3 {
			return fmt.Errorf("usage: tournament-join solo <tournament_id> <in_game_id>")
		}
		tournamentID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid tournament id %q: %w", args[1], err)
		}
		outcome := joinService.AttemptIndividualJoin(ctx, tournamentID, args[2])
		return printJSON(outcome)

	case "team":
		if len(args) != 3 {
			return fmt.Errorf("usage: tournament-join team <tournament_id> <team_id>")
		}
		tournamentID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid tournament id %q: %w", args[1], err)
		}
		outcome := joinService.AttemptTeamJoin(ctx, tournamentID, args[2])
		return printJSON(outcome)

	case "teams":
		search := ""
		if len(args) > 1 {
			search = args[1]
		}
		userID, err := identity.CurrentUserID(ctx)
		if err != nil {
			return err
		}
		teams, err := registry.ListCaptained(ctx, userID, search)
		if err != nil {
			return err
		}
		return printJSON(teams)

	case "watch":
		if len(args) != 2 {
			return fmt.Errorf("usage: tournament-join watch <tournament_id>")
		}
		tournamentID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid tournament id %q: %w", args[1], err)
		}
		stream := api.NewTournamentStream(client, logger)
		messages, err := stream.Watch(ctx, tournamentID)
		if err != nil {
			return err
		}
		logger.Info("watching tournament", slog.Int("tournament_id", tournamentID))
		for msg := range messages {
			if err := printJSON(msg); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
