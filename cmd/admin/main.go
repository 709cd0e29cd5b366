// Command yelpcamp-admin performs account maintenance directly against the
// database:
//
//	yelpcamp-admin [-d dsn] promote <username>
//	yelpcamp-admin [-d dsn] demote <username>
//	yelpcamp-admin [-d dsn] passwd <username>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/yelpcamp/internal/admin"
	"github.com/dmitrijs2005/yelpcamp/internal/flagx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	args := flagx.Positional(os.Args[1:], append([]string{"-c", "-config"}, config.ServerFlags...))

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	return admin.Run(ctx, args, services.NewUserService(db, m, cfg), os.Stdout)
}
