// cmd/train/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/forecast"
	"github.com/medstock/backend-go/internal/repository/postgres"
)

func newModelDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "model-dir",
		Usage:   "Directory holding model bundles",
		Value:   "./data/models",
		EnvVars: []string{"MODEL_DIR"},
	}
}

func newModelNameFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "model-name",
		Usage:   "Model bundle name",
		Value:   "shortage",
		EnvVars: []string{"MODEL_NAME"},
	}
}

// noSource trains without a database; the trainer falls back to
// synthetic data when real observations run short.
type noSource struct{}

func (noSource) FetchObservations(ctx context.Context) ([]domain.Observation, error) {
	return nil, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "train",
		Usage: "Train and inspect the shortage prediction model",
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "Run a full training pass and persist the bundle",
				Flags: []cli.Flag{
					newModelDirFlag(),
					newModelNameFlag(),
					&cli.StringFlag{
						Name:    "db-url",
						Usage:   "Database connection string; omit to train on synthetic data only",
						EnvVars: []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:  "classifier",
						Usage: "Classifier to fit (gbt or rf)",
						Value: forecast.ClassifierGradientBoosting,
					},
					&cli.IntFlag{
						Name:  "samples",
						Usage: "Synthetic dataset size",
						Value: 2000,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "RNG seed for reproducible runs",
						Value: 42,
					},
					&cli.IntFlag{
						Name:  "min-real",
						Usage: "Minimum real observations before synthetic fallback",
						Value: 50,
					},
				},
				Action: runTrain,
			},
			{
				Name:  "status",
				Usage: "Show the persisted model bundle's manifest",
				Flags: []cli.Flag{
					newModelDirFlag(),
					newModelNameFlag(),
				},
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runTrain(c *cli.Context) error {
	var source forecast.ObservationSource = noSource{}

	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := sqlx.Connect("pgx", dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		source = postgres.NewObservationRepository(db)
	}

	store := forecast.NewModelStore(c.String("model-dir"), c.String("model-name"), nil)
	trainer := forecast.NewTrainer(forecast.TrainerOptions{
		MinRealSamples:   c.Int("min-real"),
		SyntheticSamples: c.Int("samples"),
		Seed:             c.Int64("seed"),
		Classifier:       c.String("classifier"),
	}, source, store)

	report, err := trainer.Train(c.Context)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	return printJSON(report)
}

func runStatus(c *cli.Context) error {
	store := forecast.NewModelStore(c.String("model-dir"), c.String("model-name"), nil)

	artifact, err := store.Load()
	if errors.Is(err, forecast.ErrModelNotFound) {
		fmt.Println("no trained model found")
		return nil
	}
	if err != nil {
		return err
	}

	return printJSON(artifact.Manifest)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
