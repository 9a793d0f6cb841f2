package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/artifact"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/download"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/httpapi"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/obs"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/pipeline"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/render"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/session"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("CARTA_AUTH_SECRET")
	if secret == "" {
		log.Fatal("CARTA_AUTH_SECRET is required")
	}

	directory := auth.NewDirectory(os.Getenv("CARTA_EMAIL_DOMAIN"))
	directory.SuggestNormal(
		"juan.garcia", "maria.lopez", "carlos.martinez", "ana.fernandez",
		"pedro.sanchez", "laura.rodriguez", "miguel.gonzalez", "elena.diaz",
		"david.perez", "sofia.ruiz",
	)
	if pw := os.Getenv("CARTA_ADMIN_PASSWORD"); pw != "" {
		if err := directory.RegisterProfessional("admin", "Administrador", pw); err != nil {
			log.Fatalf("register admin: %v", err)
		}
	}

	sessOpts := []session.Option{}
	if ttl := envDuration("CARTA_SESSION_TTL"); ttl > 0 {
		sessOpts = append(sessOpts, session.WithTTL(ttl))
	}
	sessions, err := session.NewManager(directory, secret, sessOpts...)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}

	var (
		registry integrity.Registry
		probe    httpapi.ReadyProbe
		pg       *integrity.Postgres
	)
	if dsn := os.Getenv("CARTA_PG_DSN"); dsn != "" {
		pg, err = integrity.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("ensure schema: %v", err)
		}
		cancel()
		registry = pg
		probe = httpapi.ReadyProbe{DB: pg.DB()}
	} else {
		registry = integrity.NewInMemory()
	}

	var artifacts artifact.Store
	if dir := os.Getenv("CARTA_OUTPUT_DIR"); dir != "" {
		artifacts, err = artifact.NewDir(dir)
		if err != nil {
			log.Fatalf("output dir: %v", err)
		}
	} else {
		artifacts = artifact.NewMemory()
	}

	converter := render.NewSofficeConverter(os.Getenv("CARTA_SOFFICE_PATH"))
	if converter.Path == "" {
		log.Println("soffice not found; portable conversion degraded")
	}

	pool := render.NewPool(envInt("CARTA_RENDER_WORKERS"), envDuration("CARTA_RENDER_TIMEOUT"))
	pipe := pipeline.New(registry, artifacts, &render.LetterRenderer{}, converter,
		pipeline.WithPool(pool))

	api := httpapi.New(httpapi.Deps{
		Sessions:  sessions,
		Directory: directory,
		Pipeline:  pipe,
		Gate:      download.NewGate(registry, artifacts),
		Registry:  registry,
		Stream:    stream.New(),
		Ready:     probe,
		Version:   version,
	})

	addr := os.Getenv("CARTA_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second, // rendering and SSE outlive the default
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting carta-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pg != nil {
		_ = pg.Close()
	}
	log.Println("Stopped")
}

func envDuration(key string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s: %v", key, err)
	}
	return d
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s: %v", key, err)
	}
	return v
}
