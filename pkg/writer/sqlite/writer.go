// Package sqlite provides SQLite database writing for pipeline results
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Date format for RunTable (RFC 3339, UTC)
const runDateFormat = time.RFC3339

// Condition status values stored in ConditionTable
const (
	StatusOK          = "ok"
	StatusQuantFailed = "quant_failed"
	StatusFailed      = "failed"
)

// Writer handles writing condition results to a SQLite database file.
// Every Write method first removes the rows previously stored for the condition,
// so rerunning a condition into the same file replaces its results.
// RunTable counts every condition written through this writer, by WriteStatus
// or by the cascade methods.
type Writer struct {
	db          *sql.DB
	outputPath  string
	runID       string
	config      string
	created     time.Time
	conditions  map[string]bool // condition -> failed
	statusStmt  *sql.Stmt
	proteinStmt *sql.Stmt
	ratioStmt   *sql.Stmt
	cellStmt    *sql.Stmt
	fdrStmt     *sql.Stmt
	stageStmt   *sql.Stmt
}

// NewWriter creates a new SQLite writer. config is stored verbatim in RunTable.
func NewWriter(outputPath, config string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Transactions and prepared statements share one connection
	db.SetMaxOpenConns(1)

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.New().String(),
		config:     config,
		created:    time.Now().UTC(),
		conditions: make(map[string]bool),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		w.closeStatements()
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier stamped into every row written by this writer
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Conditions INTEGER,
		FailedConditions INTEGER,
		Config TEXT
	);

	CREATE TABLE IF NOT EXISTS ConditionTable (
		RunId TEXT,
		Condition TEXT PRIMARY KEY,
		Status TEXT,
		Error TEXT
	);

	CREATE TABLE IF NOT EXISTS ProteinTable (
		RunId TEXT,
		Condition TEXT,
		ProteinId TEXT,
		MeanLog2Ratio DOUBLE,
		PValue DOUBLE,
		AdjustedPValue DOUBLE,
		QuantSignificant BOOL,
		SemiquantSignificant BOOL,
		RBPDatasets TEXT,
		PRIMARY KEY (Condition, ProteinId)
	);

	CREATE TABLE IF NOT EXISTS ReplicateRatioTable (
		RunId TEXT,
		Condition TEXT,
		ProteinId TEXT,
		Sample TEXT,
		Log2Ratio DOUBLE,
		PRIMARY KEY (Condition, ProteinId, Sample)
	);

	CREATE TABLE IF NOT EXISTS CountMatrixTable (
		RunId TEXT,
		Condition TEXT,
		TreatmentCount INTEGER,
		ControlCount INTEGER,
		Occupancy INTEGER,
		PRIMARY KEY (Condition, TreatmentCount, ControlCount)
	);

	CREATE TABLE IF NOT EXISTS FDRTable (
		RunId TEXT,
		Condition TEXT,
		TreatmentCount INTEGER,
		ControlCount INTEGER,
		NullTreatmentCount INTEGER,
		NullControlCount INTEGER,
		FDR DOUBLE,
		PRIMARY KEY (Condition, TreatmentCount, ControlCount)
	);

	CREATE TABLE IF NOT EXISTS CascadeTable (
		RunId TEXT,
		Condition TEXT,
		StageOrder INTEGER,
		Stage TEXT,
		CountBefore INTEGER,
		CountAfter INTEGER,
		PRIMARY KEY (Condition, StageOrder)
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.statusStmt, err = w.db.Prepare(`
		INSERT INTO ConditionTable (RunId, Condition, Status, Error) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare condition statement: %w", err)
	}

	w.proteinStmt, err = w.db.Prepare(`
		INSERT INTO ProteinTable (
			RunId, Condition, ProteinId, MeanLog2Ratio, PValue, AdjustedPValue,
			QuantSignificant, SemiquantSignificant, RBPDatasets
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare protein statement: %w", err)
	}

	w.ratioStmt, err = w.db.Prepare(`
		INSERT INTO ReplicateRatioTable (RunId, Condition, ProteinId, Sample, Log2Ratio)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare replicate ratio statement: %w", err)
	}

	w.cellStmt, err = w.db.Prepare(`
		INSERT INTO CountMatrixTable (RunId, Condition, TreatmentCount, ControlCount, Occupancy)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare count matrix statement: %w", err)
	}

	w.fdrStmt, err = w.db.Prepare(`
		INSERT INTO FDRTable (
			RunId, Condition, TreatmentCount, ControlCount,
			NullTreatmentCount, NullControlCount, FDR
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare FDR statement: %w", err)
	}

	w.stageStmt, err = w.db.Prepare(`
		INSERT INTO CascadeTable (RunId, Condition, StageOrder, Stage, CountBefore, CountAfter)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cascade statement: %w", err)
	}

	return nil
}

// replace deletes the condition's rows from tables and runs insert in the same transaction
func (w *Writer) replace(condition string, tables []string, insert func(tx *sql.Tx) error) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE Condition = ?", condition); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear %s for %s: %w", table, condition, err)
		}
	}

	if err := insert(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", condition, err)
	}
	return nil
}

// WriteStatus records whether a condition completed. quantErr is a failure of the
// quantitative stage alone; err is a failure of the whole condition.
func (w *Writer) WriteStatus(condition string, quantErr, err error) error {
	status, msg := StatusOK, ""
	switch {
	case err != nil:
		status, msg = StatusFailed, err.Error()
	case quantErr != nil:
		status, msg = StatusQuantFailed, quantErr.Error()
	}

	w.track(condition, status == StatusFailed)

	return w.replace(condition, []string{"ConditionTable"}, func(tx *sql.Tx) error {
		if _, err := tx.Stmt(w.statusStmt).Exec(w.runID, condition, status, msg); err != nil {
			return fmt.Errorf("failed to insert condition status: %w", err)
		}
		return nil
	})
}

// WriteRecords writes the final per-protein table of a condition
func (w *Writer) WriteRecords(condition string, records []core.FinalRecord) error {
	return w.replace(condition, []string{"ProteinTable", "ReplicateRatioTable"}, func(tx *sql.Tx) error {
		proteinStmt := tx.Stmt(w.proteinStmt)
		ratioStmt := tx.Stmt(w.ratioStmt)

		for _, r := range records {
			_, err := proteinStmt.Exec(
				w.runID,
				condition,
				r.ProteinID,
				nullable(r.MeanLog2Ratio),
				nullable(r.PValue),
				nullable(r.AdjustedPValue),
				r.QuantSignificant,
				r.SemiquantSignificant,
				strings.Join(r.RBPDatasets, ","),
			)
			if err != nil {
				return fmt.Errorf("failed to insert protein %s: %w", r.ProteinID, err)
			}

			for _, rep := range r.Replicates {
				if _, err := ratioStmt.Exec(w.runID, condition, r.ProteinID, rep.Sample, nullable(rep.Log2Ratio)); err != nil {
					return fmt.Errorf("failed to insert ratio %s/%s: %w", r.ProteinID, rep.Sample, err)
				}
			}
		}
		return nil
	})
}

// WriteCountMatrix writes every cell of the count matrix, empty ones included
func (w *Writer) WriteCountMatrix(condition string, cells []core.CountCell) error {
	return w.replace(condition, []string{"CountMatrixTable"}, func(tx *sql.Tx) error {
		stmt := tx.Stmt(w.cellStmt)
		for _, c := range cells {
			if _, err := stmt.Exec(w.runID, condition, c.TreatmentCount, c.ControlCount, c.Occupancy); err != nil {
				return fmt.Errorf("failed to insert count cell (%d,%d): %w", c.TreatmentCount, c.ControlCount, err)
			}
		}
		return nil
	})
}

// WriteFDR writes the candidate cell FDR estimates. Degenerate cells get a NULL FDR.
func (w *Writer) WriteFDR(condition string, points []core.FDRPoint) error {
	return w.replace(condition, []string{"FDRTable"}, func(tx *sql.Tx) error {
		stmt := tx.Stmt(w.fdrStmt)
		for _, p := range points {
			_, err := stmt.Exec(
				w.runID,
				condition,
				p.Cell.TreatmentCount,
				p.Cell.ControlCount,
				p.NullCell.TreatmentCount,
				p.NullCell.ControlCount,
				nullable(p.FDR),
			)
			if err != nil {
				return fmt.Errorf("failed to insert FDR point (%d,%d): %w", p.Cell.TreatmentCount, p.Cell.ControlCount, err)
			}
		}
		return nil
	})
}

// track counts a condition for RunTable. A condition stays failed once marked.
func (w *Writer) track(condition string, failed bool) {
	w.conditions[condition] = w.conditions[condition] || failed
}

// WriteCascade writes the audit trail of a cascade run
func (w *Writer) WriteCascade(condition string, stages []cascade.StageCount) error {
	w.track(condition, false)
	return w.replace(condition, []string{"CascadeTable"}, func(tx *sql.Tx) error {
		stmt := tx.Stmt(w.stageStmt)
		for i, s := range stages {
			if _, err := stmt.Exec(w.runID, condition, i, s.Stage, s.Before, s.After); err != nil {
				return fmt.Errorf("failed to insert cascade stage %s: %w", s.Stage, err)
			}
		}
		return nil
	})
}

// WriteCascadeFailure counts a condition whose cascade could not run and drops
// the audit trail a previous run left for it.
func (w *Writer) WriteCascadeFailure(condition string) error {
	w.track(condition, true)
	return w.replace(condition, []string{"CascadeTable"}, func(tx *sql.Tx) error { return nil })
}

// nullable maps an absent value to SQL NULL
func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sql.Stmt{w.statusStmt, w.proteinStmt, w.ratioStmt, w.cellStmt, w.fdrStmt, w.stageStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

// Finalize writes the run table and closes the database
func (w *Writer) Finalize() error {
	failed := 0
	for _, f := range w.conditions {
		if f {
			failed++
		}
	}
	_, err := w.db.Exec(`
		INSERT OR REPLACE INTO RunTable (RunId, CreationDate, Conditions, FailedConditions, Config)
		VALUES (?, ?, ?, ?, ?)
	`, w.runID, w.created.Format(runDateFormat), len(w.conditions), failed, w.config)
	if err != nil {
		w.closeStatements()
		w.db.Close()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	w.closeStatements()

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
