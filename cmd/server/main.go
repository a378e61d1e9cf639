package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/relaychat/internal/chat"
	"github.com/Tyrowin/relaychat/internal/server"
)

func main() {
	config := server.NewConfigFromEnv()
	server.ConfigureLogging(config.LogLevel, config.LogFormat)
	log.Info().Msg("Starting relay chat server...")

	relay := chat.NewRelay(config.RelayOptions())
	hub := server.NewHub(relay, config)
	go hub.Run()

	httpServer := server.CreateServer(config.Port, server.SetupRoutes(hub))
	go func() {
		if err := server.StartServer(httpServer); err != nil {
			log.Fatal().Err(err).Str("addr", httpServer.Addr).Msg("Failed to start server")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer)
			},
			"hub": func(context.Context) error {
				return hub.Shutdown(config.ShutdownTimeout)
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("code", exitCode).Msg("Relay chat server exited")
	os.Exit(exitCode)
}
