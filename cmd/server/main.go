package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/config"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/httpapi"
	"kasirpos/backend/internal/invoice"
	"kasirpos/backend/internal/service"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/store/memory"
	pgstore "kasirpos/backend/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings := storeSettings(cfg)

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.AutoMigrate {
			if err := pgstore.Migrate(cfg.DatabaseURL); err != nil {
				log.Fatalf("migrations failed: %v", err)
			}
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if _, err := pg.GetStoreSettings(ctx); errors.Is(err, store.ErrNotFound) {
			if err := pg.SaveStoreSettings(ctx, settings); err != nil {
				log.Printf("store settings bootstrap failed: %v", err)
			}
		}
		if err := bootstrapAdmin(ctx, pg, os.Getenv("SEED_ADMIN_PASSWORD")); err != nil {
			log.Fatalf("admin bootstrap failed: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded(memory.WithSettings(settings))
		log.Println("repository: in-memory")
	}

	var settingsCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-process cache", err)
		} else {
			settingsCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: in-process")
	}

	retry := invoice.DefaultRetryPolicy()
	retry.Attempts = cfg.InvoiceRetryAttempts
	svc := service.New(repo, settingsCache, service.Options{
		Location:      cfg.Location(),
		InvoicePrefix: cfg.InvoicePrefix,
		Retry:         retry,
		CacheTTL:      time.Duration(cfg.SettingsCacheTTLSeconds) * time.Second,
		Settings:      settings,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, httpapi.Options{AllowedOrigin: cfg.AllowedOrigin, APIKey: cfg.APIKey})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS back-office listening on %s (tz=%s)", cfg.Address(), cfg.Location())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.APIKey) < 12 {
		return fmt.Errorf("API_KEY must be set and at least 12 characters")
	}
	if strings.EqualFold(cfg.APIKey, cfg.AuthSecret) {
		return fmt.Errorf("API_KEY must differ from AUTH_SECRET")
	}
	return nil
}

func storeSettings(cfg config.Config) domain.StoreSettings {
	return domain.StoreSettings{
		Name:          cfg.StoreName,
		Address:       cfg.StoreAddress,
		Phone:         cfg.StorePhone,
		PrinterSize:   "58",
		ReceiptFooter: cfg.StoreReceiptFooter,
	}
}

type adminStore interface {
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
}

// bootstrapAdmin creates the first admin account on an empty database. It
// does nothing when password is empty or an admin login already exists.
func bootstrapAdmin(ctx context.Context, users adminStore, password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	if _, err := users.GetUserByLogin(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := users.CreateUser(ctx, domain.User{
		Name:         "Administrator",
		Username:     "admin",
		Email:        "admin@kasirpos.local",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	log.Printf("[audit] actor=system role=system action=user.bootstrap entity=user/%d", user.ID)
	return nil
}
