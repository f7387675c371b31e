package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
)

// ConditionSummary holds the counts stored for one condition
type ConditionSummary struct {
	Condition            string
	Status               string
	Error                string
	Proteins             int
	QuantSignificant     int
	SemiquantSignificant int
	BothSignificant      int
	KnownRBPs            int // Significant by either call and present in a reference RBP dataset
	DegenerateCells      int
	Stages               []cascade.StageCount
}

// Summary is the content of a results database
type Summary struct {
	Runs       int
	Conditions []ConditionSummary
}

// Summarize reads back the per-condition counts of a results database
func Summarize(path string) (*Summary, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	s := &Summary{}
	if err := db.QueryRow(`SELECT COUNT(*) FROM RunTable`).Scan(&s.Runs); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	index := make(map[string]int)
	get := func(cond string) *ConditionSummary {
		i, ok := index[cond]
		if !ok {
			i = len(s.Conditions)
			index[cond] = i
			s.Conditions = append(s.Conditions, ConditionSummary{Condition: cond})
		}
		return &s.Conditions[i]
	}

	rows, err := db.Query(`SELECT Condition, Status, Error FROM ConditionTable ORDER BY Condition`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conditions: %w", err)
	}
	for rows.Next() {
		var cond, status string
		var msg sql.NullString
		if err := rows.Scan(&cond, &status, &msg); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		c := get(cond)
		c.Status = status
		c.Error = msg.String
	}
	rows.Close()

	rows, err = db.Query(`
		SELECT Condition,
			COUNT(*),
			SUM(QuantSignificant),
			SUM(SemiquantSignificant),
			SUM(QuantSignificant AND SemiquantSignificant),
			SUM((QuantSignificant OR SemiquantSignificant) AND RBPDatasets != '')
		FROM ProteinTable GROUP BY Condition ORDER BY Condition
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query proteins: %w", err)
	}
	for rows.Next() {
		var cond string
		var total, quant, semi, both, rbp sql.NullInt64
		if err := rows.Scan(&cond, &total, &quant, &semi, &both, &rbp); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan protein counts: %w", err)
		}
		c := get(cond)
		c.Proteins = int(total.Int64)
		c.QuantSignificant = int(quant.Int64)
		c.SemiquantSignificant = int(semi.Int64)
		c.BothSignificant = int(both.Int64)
		c.KnownRBPs = int(rbp.Int64)
	}
	rows.Close()

	rows, err = db.Query(`SELECT Condition, COUNT(*) FROM FDRTable WHERE FDR IS NULL GROUP BY Condition`)
	if err != nil {
		return nil, fmt.Errorf("failed to query FDR points: %w", err)
	}
	for rows.Next() {
		var cond string
		var n int
		if err := rows.Scan(&cond, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan FDR points: %w", err)
		}
		get(cond).DegenerateCells = n
	}
	rows.Close()

	rows, err = db.Query(`SELECT Condition, Stage, CountBefore, CountAfter FROM CascadeTable ORDER BY Condition, StageOrder`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cascade: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cond string
		var st cascade.StageCount
		if err := rows.Scan(&cond, &st.Stage, &st.Before, &st.After); err != nil {
			return nil, fmt.Errorf("failed to scan cascade stage: %w", err)
		}
		c := get(cond)
		c.Stages = append(c.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cascade: %w", err)
	}

	return s, nil
}
