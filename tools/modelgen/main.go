package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// modelgen regenerates the gorm model for the layout document table from a
// migrated database.
func main() {
	var dsn, out, table string
	flag.StringVar(&dsn, "dsn", os.Getenv("GARDENSYNC_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.StringVar(&table, "table", "layout_documents", "table to generate; empty generates every table")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or GARDENSYNC_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext | gen.WithDefaultQuery,
	})
	g.UseDB(db)
	if table == "" {
		g.ApplyBasic(g.GenerateAllTable()...)
	} else {
		g.ApplyBasic(g.GenerateModel(table))
	}
	g.Execute()

	fmt.Printf("generated gorm models for %q at %s\n", table, out)
}
