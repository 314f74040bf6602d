package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/handput/internal/app"
	"github.com/ayusman/handput/internal/config"
	"github.com/ayusman/handput/internal/server"
	"github.com/ayusman/handput/internal/store"
	"github.com/ayusman/handput/internal/tray"
)

func main() {
	fmt.Println("Handput - Hand Joint Tracking")

	env := config.LoadEnv()

	if err := os.MkdirAll(env.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(env.DataDir, "handput.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	tuning, source := resolveTuning(env, st)
	log.Printf("Using %s tuning", source)

	a := app.New(app.Config{
		Tuning:   tuning,
		CameraID: env.CameraID,
		FPS:      env.FPS,
	})
	defer a.Close()

	hub := server.NewHub()
	consumers := app.Consumers{hub, alertLog(st)}

	var tr *tray.Tray
	if env.Tray {
		tr = tray.New()
		tr.OnToggle(a.SetEnabled)
		consumers = append(consumers, tr)
	}
	a.SetConsumer(consumers)

	if err := a.Start(); err != nil {
		// The server still runs so the alert and settings stay reachable.
		log.Printf("Failed to start capture: %v", err)
	}

	webDir := findWebDir(env.DataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  a,
		Hub:       hub,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", env.Addr)
		if err := srv.ListenAndServe(env.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tr != nil {
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray must own the main goroutine.
		tr.Run()
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	a.Stop()
}

// resolveTuning picks the tuning file when configured, then the active
// profile, then the defaults.
func resolveTuning(env config.Env, st *store.Store) (config.Tuning, string) {
	if env.TuningPath != "" {
		t, err := config.Load(env.TuningPath)
		if err == nil {
			return t, env.TuningPath
		}
		log.Printf("Failed to load tuning file: %v", err)
	}

	p, err := st.Profiles().Active()
	switch {
	case err == nil:
		return p.Tuning, fmt.Sprintf("profile %q", p.Name)
	case !errors.Is(err, store.ErrNotFound):
		log.Printf("Failed to read active profile: %v", err)
	}

	return config.Default(), "default"
}

// alertLog records every pipeline alert in the store.
func alertLog(st *store.Store) app.Consumer {
	return app.ConsumerFuncs{
		Alert: func(a app.Alert) {
			rec := &store.AlertRecord{Kind: string(a.Kind), Message: a.Message()}
			if a.Err != nil {
				rec.Detail = a.Err.Error()
			}
			if err := st.Alerts().Record(rec); err != nil {
				log.Printf("Failed to record alert: %v", err)
			}
		},
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
