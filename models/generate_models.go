package models

import (
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables lists every persisted model in dependency order (rooms before the
// rows that reference them).
func Tables() []interface{} {
	return []interface{}{
		&Profile{},
		&Room{},
		&RoomMember{},
		&Blog{},
		&ReconciliationTask{},
	}
}

// GenerateModels migrates the schema with verbose SQL logging and writes
// typed query helpers for every table to ./generated.
func GenerateModels(db *gorm.DB) error {
	db = db.Session(&gorm.Session{
		Logger:                 db.Logger.LogMode(logger.Info),
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	log.Info().Int("tables", len(Tables())).Msg("migrating models")
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}

	drifts, err := ColumnReport(db)
	if err != nil {
		return err
	}
	WriteColumnReport(log.Logger, drifts)

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(Tables()...)
	g.Execute()

	log.Info().Msg("model generation complete")
	return nil
}

// ColumnDrift is a table whose columns are not all mapped by its model.
// Missing is set when the table has not been created yet.
type ColumnDrift struct {
	Table    string
	Unmapped []string
	Missing  bool
}

// ColumnReport compares each table with the columns gorm derives from its
// model. Tables without drift are left out.
func ColumnReport(db *gorm.DB) ([]ColumnDrift, error) {
	var drifts []ColumnDrift
	migrator := db.Migrator()

	for _, model := range Tables() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !migrator.HasTable(model) {
			drifts = append(drifts, ColumnDrift{Table: table, Missing: true})
			continue
		}

		columnTypes, err := migrator.ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}
		columns := make([]string, 0, len(columnTypes))
		for _, ct := range columnTypes {
			columns = append(columns, ct.Name())
		}

		if unmapped := unmappedColumns(columns, stmt.Schema.DBNames); len(unmapped) > 0 {
			drifts = append(drifts, ColumnDrift{Table: table, Unmapped: unmapped})
		}
	}
	return drifts, nil
}

// unmappedColumns returns the database columns no model field maps to, in
// table order.
func unmappedColumns(columns, modelColumns []string) []string {
	var unmapped []string
	for _, col := range columns {
		if !slices.Contains(modelColumns, col) {
			unmapped = append(unmapped, col)
		}
	}
	return unmapped
}

// WriteColumnReport prints drifts in a human readable form.
func WriteColumnReport(w io.Writer, drifts []ColumnDrift) {
	if len(drifts) == 0 {
		fmt.Fprintln(w, "all tables match their models")
		return
	}

	total := 0
	for _, d := range drifts {
		if d.Missing {
			fmt.Fprintf(w, "%s: table does not exist yet\n", d.Table)
			continue
		}
		fmt.Fprintf(w, "%s: %d unmapped columns\n", d.Table, len(d.Unmapped))
		for _, col := range d.Unmapped {
			fmt.Fprintf(w, "  - %s\n", col)
		}
		total += len(d.Unmapped)
	}
	fmt.Fprintf(w, "total unmapped columns: %d\n", total)
}
