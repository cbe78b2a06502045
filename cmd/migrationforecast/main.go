package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/migrationforecast/internal/api"
	"github.com/lox/migrationforecast/internal/console"
	"github.com/lox/migrationforecast/internal/forecast"
	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/ingest"
	"github.com/lox/migrationforecast/internal/reasongen"
	"github.com/lox/migrationforecast/internal/store"
)

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to .env file'"`
	DB      string                   `help:"Path to SQLite database" default:"data/migrationforecast.db" env:"DB_PATH"`

	Serve     ServeCmd     `cmd:"" default:"withargs" help:"Run the forecast web server"`
	Import    ImportCmd    `cmd:"" help:"Import the migration dataset workbook"`
	Forecast  ForecastCmd  `cmd:"" help:"Request a forecast from a running server"`
	Districts DistrictsCmd `cmd:"" help:"List districts in the dataset"`
}

type ServeCmd struct {
	Port            string        `help:"HTTP server port" default:"5000" env:"PORT"`
	ForecastURL     string        `help:"Remote prediction service for server-rendered forecasts" env:"FORECAST_URL"`
	Dataset         string        `help:"Workbook path or URL to import on start and refresh" env:"DATASET_URL"`
	RefreshInterval time.Duration `help:"How often to re-import the dataset" default:"24h"`
	Retention       time.Duration `help:"How long to keep the prediction log" default:"720h"`
	NoPoll          bool          `help:"Disable dataset refresh and log cleanup"`
}

type ImportCmd struct {
	Source string `arg:"" optional:"" help:"Workbook path, http(s) or ftp URL" default:"Cleaned_Migration_Data.xlsx"`
	Force  bool   `help:"Replace records even if the workbook was imported before"`
}

type ForecastCmd struct {
	URL      string   `help:"Forecast service base URL" default:"http://localhost:5000" env:"FORECAST_URL"`
	District string   `arg:"" help:"District name"`
	Years    string   `arg:"" optional:"" help:"Forecast horizon in years" default:"5"`
	Toggle   []string `help:"Toggle a series (inflow or outflow); repeatable"`
	Chart    string   `help:"Write the chart to this PNG file"`
}

type DistrictsCmd struct{}

func openStore(path string) (*store.Store, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func (c *ServeCmd) Run(cli *CLI) error {
	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()
	log.Println("database migrated")

	if err := forecast.SeedReasons(st); err != nil {
		return fmt.Errorf("seed reasons: %w", err)
	}

	opts := api.Options{ForecastURL: c.ForecastURL}
	if gen, err := reasongen.NewGenerator(); err != nil {
		log.Printf("reason generation disabled: %v", err)
	} else {
		opts.Reasons = gen
	}
	server := api.NewServer(st, c.Port, opts)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !c.NoPoll {
		importer := ingest.NewImporter(st, nil)
		scheduler := ingest.NewScheduler(st, importer, c.Dataset, c.RefreshInterval, c.Retention)
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	return server.Run(ctx)
}

func (c *ImportCmd) Run(cli *CLI) error {
	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := ingest.NewImporter(st, nil).Import(ctx, c.Source, c.Force)
	if err != nil {
		return err
	}
	if result.Duplicate {
		fmt.Println("workbook unchanged; use --force to re-import")
		return nil
	}
	fmt.Printf("imported %d records (import %d)\n", result.Records, result.ImportID)
	for _, f := range result.FlagSummary() {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

func (c *ForecastCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := console.New(os.Stdout, os.Stderr)
	h := formhandler.New(formhandler.NewClient(c.URL), out.Surfaces())
	outcome := h.Submit(ctx, c.District, c.Years)
	if outcome != formhandler.Rendered {
		return fmt.Errorf("forecast %s", outcome)
	}

	for _, t := range c.Toggle {
		series, ok := formhandler.ParseSeries(t)
		if !ok {
			return fmt.Errorf("unknown series %q", t)
		}
		out.Click(series)
	}
	if err := out.Print(c.District); err != nil {
		return err
	}
	if c.Chart != "" {
		if err := out.WriteChart(c.Chart); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Printf("\nchart written to %s\n", c.Chart)
	}
	return nil
}

func (c *DistrictsCmd) Run(cli *CLI) error {
	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	districts, err := st.ListDistricts()
	if err != nil {
		return err
	}
	if len(districts) == 0 {
		fmt.Println("no districts; run `migrationforecast import` first")
		return nil
	}
	for _, d := range districts {
		fmt.Println(d)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("migrationforecast"),
		kong.Description("Uttarakhand district migration forecasts."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
