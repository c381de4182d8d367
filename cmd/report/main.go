// cmd/report/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/report"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "report",
		Usage: "Inspect the forecast store from the command line",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Apply the database schema",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Path to the schema file",
						Value: "./migrations/0001_init.sql",
					},
				},
				Action: runInit,
			},
			{
				Name:  "latest",
				Usage: "Print the latest batch report",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "window-seconds",
						Usage: "Batch membership window around the newest row",
						Value: 60,
					},
				},
				Action: runLatest,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runInit(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	schema, err := os.ReadFile(c.String("schema"))
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(c.Context, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("Schema applied successfully")
	return nil
}

func runLatest(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	window := time.Duration(c.Int("window-seconds")) * time.Second
	payload, err := loadLatestBatch(c.Context, db, window)
	if err != nil {
		return err
	}

	printReport(payload)
	return nil
}

func loadLatestBatch(ctx context.Context, db *sql.DB, window time.Duration) (domain.ReportPayload, error) {
	var ts sql.NullTime
	if err := db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM forecasts`).Scan(&ts); err != nil {
		return domain.ReportPayload{}, fmt.Errorf("failed to read latest batch timestamp: %w", err)
	}
	if !ts.Valid {
		return report.Aggregate(nil, nil, time.Time{}), nil
	}

	cutoff := ts.Time.Add(-window)

	rows, err := db.QueryContext(ctx, `
        SELECT product, category, last_week_sales, forecast, created_at
        FROM forecasts
        WHERE created_at >= $1
        ORDER BY id ASC
    `, cutoff)
	if err != nil {
		return domain.ReportPayload{}, fmt.Errorf("failed to read forecast rows: %w", err)
	}
	defer rows.Close()

	var forecasts []domain.StoredForecast
	for rows.Next() {
		var f domain.StoredForecast
		if err := rows.Scan(&f.ProductID, &f.Category, &f.LastWeekSales, &f.Forecast, &f.CreatedAt); err != nil {
			return domain.ReportPayload{}, fmt.Errorf("failed to scan forecast row: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return domain.ReportPayload{}, fmt.Errorf("failed to iterate forecast rows: %w", err)
	}

	alertRows, err := db.QueryContext(ctx, `
        SELECT product, category, forecast, message, decision, risk_level, created_at
        FROM alerts
        ORDER BY created_at DESC, id DESC
    `)
	if err != nil {
		return domain.ReportPayload{}, fmt.Errorf("failed to read alert rows: %w", err)
	}
	defer alertRows.Close()

	var alerts []domain.StoredAlert
	for alertRows.Next() {
		var a domain.StoredAlert
		if err := alertRows.Scan(&a.ProductID, &a.Category, &a.Forecast, &a.Message, &a.Decision, &a.Risk, &a.CreatedAt); err != nil {
			return domain.ReportPayload{}, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := alertRows.Err(); err != nil {
		return domain.ReportPayload{}, fmt.Errorf("failed to iterate alert rows: %w", err)
	}

	return report.Aggregate(forecasts, alerts, ts.Time), nil
}

func printReport(p domain.ReportPayload) {
	fmt.Println("=== Latest Batch Report ===")
	fmt.Printf("Products:       %d\n", p.Overview.Products)
	fmt.Printf("Horizon:        %d weeks\n", p.Overview.Horizon)
	fmt.Printf("Forecast total: %d units\n", p.Overview.ForecastTotal)
	fmt.Printf("Avg growth:     %.2f%%\n", p.Overview.AvgGrowth)

	if len(p.Categories) > 0 {
		fmt.Println("\nCategories:")
		for _, cat := range p.Categories {
			fmt.Printf("  %-20s %3d products, %6d units, %5d avg/product\n",
				cat.Category, cat.Products, cat.Total, cat.AvgPerProduct)
		}
	}

	if len(p.TopProducts) > 0 {
		fmt.Println("\nTop products:")
		for i, tp := range p.TopProducts {
			fmt.Printf("  %d. %-16s %s\n", i+1, tp.ID, tp.Trend)
		}
	}

	if len(p.Alerts) > 0 {
		fmt.Println("\nAlerts:")
		for _, a := range p.Alerts {
			fmt.Printf("  [%s/%s] %-16s %s\n", a.Decision, a.Risk, a.ProductID, a.Message)
		}
	}
}
