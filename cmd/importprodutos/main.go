// cmd/importprodutos/main.go: importa produtos de um dump SQL da tabela products.
// Uso: go run ./cmd/importprodutos -file products_rows.sql
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pdvinova/internal/config"
	"pdvinova/internal/infra"
	"pdvinova/internal/repository"
	"pdvinova/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "products_rows.sql", "dump SQL com os INSERTs de products")
	dryRun := flag.Bool("dry-run", false, "só analisa o arquivo, sem gravar")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to read dump")
	}

	if *dryRun {
		res := service.ParseProductDump(string(raw))
		fmt.Printf("📊 Total parseado: %d\n   Mantidos: %d\n   Filtrados: %d\n   Inválidos: %d\n   Duplicados: %d\n",
			res.Parsed, len(res.Products), res.Filtered, res.Invalid, res.Duplicates)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBAutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// The server's barcode lookups would keep old prices; flush them when Redis is reachable.
	var lookups service.LookupCache
	if cfg.RedisURL != "" {
		if rdb, err := infra.NewRedis(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, product lookup cache not flushed")
		} else {
			defer rdb.Close()
			lookups = infra.NewProductCache(rdb)
		}
	}

	svc := service.NewImportService(repository.NewProductRepository(db), lookups, nil)
	res, err := svc.Import(ctx, string(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("import aborted")
	}
	fmt.Printf("✨ Importação concluída!\n   ✅ Importados: %d\n   ❌ Erros: %d\n   Filtrados: %d\n", res.Imported, res.Failed, res.Filtered)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
