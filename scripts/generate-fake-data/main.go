// Command generate-fake-data fills fila_regulacao with synthetic queue
// records for load testing the dashboard. Generated rows reference only
// facility names already present in unidades_saude, preserving the join
// contract between the two tables. The previous synthetic queue is
// truncated first; never point this at a production database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/prefeitura-rio/regulacao-etl/pkg/config"
	"github.com/prefeitura-rio/regulacao-etl/pkg/database"
	"github.com/prefeitura-rio/regulacao-etl/pkg/logging"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
	"github.com/prefeitura-rio/regulacao-etl/pkg/repositories"
)

var procedures = []string{
	"Tomografia de Tórax",
	"Internação Clínica",
	"Vaga de UTI Adulto",
	"Parecer Cardiologia",
	"Ecocardiograma",
	"Cirurgia Geral",
	"Internação Pediátrica",
	"Transferência para Especialidade",
}

var urgencies = []string{
	models.UrgencyGreen,
	models.UrgencyYellow,
	models.UrgencyOrange,
	models.UrgencyRed,
}

const initialsAlphabet = "ABCDEFGHIJKLMNOPRSTUV"

func main() {
	count := flag.Int("n", 350, "number of synthetic queue records to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.DatabaseURL,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", logging.SanitizeError(err))
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	names, err := repositories.NewFacilityRepository(db).Names(ctx)
	if err != nil {
		log.Fatalf("Failed to list facilities: %v", err)
	}
	if len(names) == 0 {
		log.Fatal("No facilities loaded; run the facility flow first (regulacao-etl -facilities ...)")
	}

	records := make([]models.QueueRecord, 0, *count)
	now := time.Now()
	for i := 0; i < *count; i++ {
		records = append(records, models.QueueRecord{
			PatientID:          10000 + rand.Intn(90000),
			AnonymizedName:     randomInitials(),
			Urgency:            urgencies[rand.Intn(len(urgencies))],
			ProcedureRequested: procedures[rand.Intn(len(procedures))],
			OriginFacility:     names[rand.Intn(len(names))],
			RequestTimestamp: now.Add(-time.Duration(rand.Intn(5*24)) * time.Hour).
				Truncate(time.Second),
		})
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE fila_regulacao RESTART IDENTITY"); err != nil {
		log.Fatalf("Failed to truncate fila_regulacao: %v", err)
	}

	if err := repositories.NewQueueRepository(db).InsertBatch(ctx, records); err != nil {
		log.Fatalf("Failed to insert synthetic records: %v", err)
	}

	fmt.Printf("Inserted %d synthetic records referencing %d facilities\n", len(records), len(names))
}

func randomInitials() string {
	first := initialsAlphabet[rand.Intn(len(initialsAlphabet))]
	last := initialsAlphabet[rand.Intn(len(initialsAlphabet))]
	return fmt.Sprintf("%c. %c.", first, last)
}
