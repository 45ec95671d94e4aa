package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"phonereuse/bot"
	"phonereuse/impl/auth"
	"phonereuse/impl/core"
	"phonereuse/internal/config"
	"phonereuse/internal/database"
	"phonereuse/internal/http-server/api"
	"phonereuse/internal/lock"
	"phonereuse/internal/registry"
	"phonereuse/internal/storage/filestore"
	"phonereuse/lib/clock"
	"phonereuse/lib/logger"
	"phonereuse/lib/sl"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	// secrets may come from a local .env file
	_ = godotenv.Load()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)
	lg.Info("starting phonereuse", slog.String("config", *configPath), slog.String("env", conf.Env))

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatIds, lg)
		if err != nil {
			lg.Error("telegram bot", sl.Err(err))
		} else {
			var level slog.Level
			if err = level.UnmarshalText([]byte(conf.Telegram.AlertLevel)); err != nil {
				level = slog.LevelWarn
			}
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, level))
			lg.With(slog.String("alert_level", level.String())).Info("telegram alerts enabled")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStore(ctx, conf, lg)
	if err != nil {
		cancel()
		log.Fatal(err)
	}

	opts := registry.Options{ReuseWindow: conf.Registry.ReuseWindow}
	if conf.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer client.Close()
		opts.Locker = lock.NewRedisLock(client, conf.Redis.LockKey, conf.Redis.LockTTL, conf.Redis.LockWait, lg)
		lg.With(slog.String("addr", conf.Redis.Addr)).Info("redis registry lock enabled")
	}

	clk := clock.System{}
	reg := registry.New(ctx, store, clk, opts, lg)
	cancel()

	handler := core.New(reg, clk, conf.Registry.DefaultService, lg)
	handler.SetAuthService(auth.New(conf.Api.Clients))

	if tgBot != nil {
		tgBot.SetCore(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("starting telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	if err = api.New(conf, lg, handler); err != nil {
		lg.Error("server error", sl.Err(err))
	}
	lg.Error("service stopped")
}

func openStore(ctx context.Context, conf *config.Config, lg *slog.Logger) (registry.Store, error) {
	switch conf.Registry.Storage {
	case config.StorageMongo:
		mongo := database.NewMongoClient(conf)
		if err := mongo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		lg.With(slog.String("database", conf.Mongo.Database)).Info("registry stored in mongodb")
		return mongo, nil
	case config.StorageMySQL:
		mysql, err := database.NewSQLClient(conf)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		lg.With(slog.String("database", conf.MySQL.Database)).Info("registry stored in mysql")
		return mysql, nil
	default:
		store := filestore.New(conf.Registry.FilePath, lg)
		lg.With(slog.String("path", store.Path())).Info("registry stored in file")
		return store, nil
	}
}
