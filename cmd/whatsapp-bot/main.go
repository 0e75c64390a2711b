package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"barbershop-whatsapp/internal/booking"
	"barbershop-whatsapp/internal/calendar"
	"barbershop-whatsapp/internal/config"
	"barbershop-whatsapp/internal/handler"
	"barbershop-whatsapp/internal/models"
	"barbershop-whatsapp/internal/session"
	"barbershop-whatsapp/internal/storage"
	"barbershop-whatsapp/internal/whatsapp"
)

const (
	startupTimeout   = 30 * time.Second
	evictionInterval = time.Minute
)

func main() {
	fmt.Println("💈 Barbershop WhatsApp Booking Bot")
	fmt.Println("==================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()

	if err := os.MkdirAll(cfg.WhatsAppDataDir, 0755); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create data directory")
	}

	injector := setupDI(cfg, logger)

	bookingStorage := mustResolve[*storage.Storage](injector, logger, "booking storage")
	defer bookingStorage.Close()

	whatsappService := mustResolve[*whatsapp.Service](injector, logger, "WhatsApp service")
	bookingHandler := mustResolve[*handler.BookingHandler](injector, logger, "booking handler")
	sessions := mustResolve[*session.Store](injector, logger, "session store")

	whatsappService.SetMessageHandler(bookingHandler.HandleMessage)

	fmt.Println("Connecting to WhatsApp...")
	if err := whatsappService.Connect(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Error connecting to WhatsApp")
	}

	fmt.Println("\n✅ Connected to WhatsApp!")
	fmt.Println("The bot is now taking bookings.")

	ctx, cancel := context.WithCancel(context.Background())
	go evictIdleSessions(ctx, sessions, logger)
	go startCLI(bookingHandler, bookingStorage, cfg)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\n\nShutting down...")
	cancel()
	whatsappService.Disconnect()
	bookingHandler.Wait()
	fmt.Println("Goodbye! 👋")
}

func setupDI(cfg *config.Config, logger zerolog.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i do.Injector) (*storage.Storage, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return storage.NewStorage(ctx, c.DatabaseDriver, c.DatabaseURL)
	})

	do.Provide(injector, func(i do.Injector) (calendar.Calendar, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.CalendarBackend == "memory" {
			logger.Warn().Msg("Using in-memory calendar, bookings will not survive a restart")
			return calendar.NewMemory(), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return calendar.NewGoogle(ctx, calendar.GoogleConfig{
			CalendarID:      c.CalendarID,
			CredentialsFile: c.CredentialsFile,
			Location:        c.Location(),
		}, do.MustInvoke[zerolog.Logger](i))
	})

	do.Provide(injector, func(i do.Injector) (*booking.Service, error) {
		c := do.MustInvoke[*config.Config](i)
		cal, err := do.Invoke[calendar.Calendar](i)
		if err != nil {
			return nil, err
		}
		records, err := do.Invoke[*storage.Storage](i)
		if err != nil {
			return nil, err
		}
		return booking.NewService(
			cal,
			records,
			booking.Config{Location: c.Location(), Timeout: c.CollaboratorTimeout},
			do.MustInvoke[zerolog.Logger](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*session.Store, error) {
		return session.NewStore(do.MustInvoke[*config.Config](i).SessionIdleTTL), nil
	})

	do.Provide(injector, func(i do.Injector) (*whatsapp.Service, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return whatsapp.NewService(ctx, &whatsapp.Config{DataDir: c.WhatsAppDataDir}, do.MustInvoke[zerolog.Logger](i))
	})

	do.Provide(injector, func(i do.Injector) (*handler.BookingHandler, error) {
		replier, err := do.Invoke[*whatsapp.Service](i)
		if err != nil {
			return nil, err
		}
		bookings, err := do.Invoke[*booking.Service](i)
		if err != nil {
			return nil, err
		}
		return handler.NewBookingHandler(
			replier,
			do.MustInvoke[*session.Store](i),
			bookings,
			do.MustInvoke[zerolog.Logger](i),
		), nil
	})

	return injector
}

func mustResolve[T any](injector do.Injector, logger zerolog.Logger, name string) T {
	v, err := do.Invoke[T](injector)
	if err != nil {
		logger.Fatal().Err(err).Msgf("Failed to initialize %s", name)
	}
	return v
}

func evictIdleSessions(ctx context.Context, sessions *session.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Evict(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("Evicted idle sessions")
			}
		}
	}
}

func startCLI(bookingHandler *handler.BookingHandler, storage *storage.Storage, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. View upcoming bookings")
		fmt.Println("  2. View active conversations")
		fmt.Println("  3. Exit")
		fmt.Print("\nEnter command (1-3): ")

		if !scanner.Scan() {
			break
		}

		command := strings.TrimSpace(scanner.Text())

		switch command {
		case "1":
			viewUpcomingBookings(storage, cfg)
		case "2":
			fmt.Printf("\n💬 Active conversations: %d\n", bookingHandler.ActiveSessions())
		case "3":
			fmt.Println("Exiting...")
			os.Exit(0)
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func viewUpcomingBookings(storage *storage.Storage, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CollaboratorTimeout)
	defer cancel()

	today := time.Now().In(cfg.Location()).Format(booking.StoreDateLayout)
	bookings, err := storage.GetBookingsByStatus(ctx, models.BookingActive, today)
	if err != nil {
		fmt.Printf("❌ Error loading bookings: %v\n", err)
		return
	}
	if len(bookings) == 0 {
		fmt.Println("\nNo upcoming bookings.")
		return
	}

	fmt.Printf("\n📋 Upcoming bookings (%d total):\n", len(bookings))
	fmt.Println(strings.Repeat("-", 60))
	for _, b := range bookings {
		fmt.Printf("Name: %s\n", b.Name)
		fmt.Printf("Tax ID: %s\n", b.TaxID)
		fmt.Printf("Service: %s\n", b.Service)
		fmt.Printf("When: %s %s\n", b.Date, b.Time)
		fmt.Printf("Event: %s\n", b.EventRef)
		fmt.Println(strings.Repeat("-", 60))
	}
}
