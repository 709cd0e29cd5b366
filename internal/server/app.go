// Package server wires the YelpCamp application together: configuration,
// database, external adapters, services and the HTTP front end.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/geocoder"
	"github.com/dmitrijs2005/yelpcamp/internal/server/imagestore"
	"github.com/dmitrijs2005/yelpcamp/internal/server/mailer"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
	"github.com/dmitrijs2005/yelpcamp/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	web    *web.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	geo, err := newGeocoder(c, logger)
	if err != nil {
		return nil, fmt.Errorf("geocoder init error: %w", err)
	}

	images, err := imagestore.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	mail, err := newMailer(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	renderer, err := web.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates error: %w", err)
	}

	us := services.NewUserService(db, m, c)
	rs := services.NewResetService(db, m, mail, c, logger)
	cs := services.NewCampgroundService(db, dbx.NewTxRunner(db, nil), m, geo, images, logger)
	ms := services.NewCommentService(db, m)

	srv := web.NewServer(c, logger, renderer, us, rs, cs, ms)

	return &App{config: c, logger: logger, db: db, web: srv}, nil
}

// newGeocoder falls back to a geocoder that always fails when no API key is
// configured, so campground writes report the address as invalid.
func newGeocoder(c *config.Config, logger logging.Logger) (services.Geocoder, error) {
	if c.GeocoderAPIKey == "" {
		logger.Warn(context.Background(), "no geocoder API key configured, addresses cannot be resolved")
		return geocoder.Unavailable{}, nil
	}
	return geocoder.NewGoogle(c.GeocoderAPIKey, logger)
}

// newMailer uses SES when a mail region is configured and logs mail otherwise.
func newMailer(ctx context.Context, c *config.Config, logger logging.Logger) (services.Mailer, error) {
	if c.MailRegion == "" {
		return mailer.NewLogMailer(logger), nil
	}
	return mailer.NewSES(ctx, c.MailRegion, c.MailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until SIGINT or SIGTERM, or until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.web.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")

	return err
}
