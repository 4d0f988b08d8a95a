package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal/errors"
	"abkit/ports"

	"github.com/jmoiron/sqlx"
)

// ExperimentRepositoryImpl implements ports.ExperimentRepository for PostgreSQL
type ExperimentRepositoryImpl struct {
	db *sqlx.DB
}

// NewExperimentRepository creates a new PostgreSQL experiment repository
func NewExperimentRepository(db *sqlx.DB) ports.ExperimentRepository {
	return &ExperimentRepositoryImpl{db: db}
}

// experimentRow mirrors the experiments table.
type experimentRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Kind        string    `db:"kind"`
	Params      []byte    `db:"params"`
	Input       []byte    `db:"input"`
	Evaluation  []byte    `db:"evaluation"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
	EvaluatedAt time.Time `db:"evaluated_at"`
}

const selectColumns = `id, name, kind, params, input, evaluation, fingerprint, created_at, evaluated_at`

// Save upserts the record keyed by experiment ID.
func (r *ExperimentRepositoryImpl) Save(ctx context.Context, record *experiment.Record) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO experiments (id, name, kind, params, input, evaluation, fingerprint, created_at, evaluated_at)
		VALUES (:id, :name, :kind, :params, :input, :evaluation, :fingerprint, :created_at, :evaluated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			params = EXCLUDED.params,
			input = EXCLUDED.input,
			evaluation = EXCLUDED.evaluation,
			fingerprint = EXCLUDED.fingerprint,
			evaluated_at = EXCLUDED.evaluated_at
	`, row)
	if err != nil {
		return errors.DatabaseError("failed to save experiment "+row.ID, err)
	}
	return nil
}

// Get retrieves an experiment and its evaluation by ID.
func (r *ExperimentRepositoryImpl) Get(ctx context.Context, id core.ExperimentID) (*experiment.Record, error) {
	var row experimentRow
	err := r.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM experiments WHERE id = $1`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrExperimentNotFound, id)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load experiment "+id.String(), err)
	}
	return fromRow(row)
}

// List returns experiments newest first.
func (r *ExperimentRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*experiment.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []experimentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+selectColumns+`
		FROM experiments
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list experiments", err)
	}

	records := make([]*experiment.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toRow(record *experiment.Record) (experimentRow, error) {
	exp := record.Experiment
	if err := exp.Validate(); err != nil {
		return experimentRow{}, err
	}

	params, err := json.Marshal(exp.Params)
	if err != nil {
		return experimentRow{}, fmt.Errorf("marshal params: %w", err)
	}

	var input []byte
	switch exp.Kind {
	case experiment.KindMeans:
		input, err = json.Marshal(exp.Means)
	case experiment.KindProportions:
		input, err = json.Marshal(exp.Proportions)
	}
	if err != nil {
		return experimentRow{}, fmt.Errorf("marshal input: %w", err)
	}

	evaluation, err := json.Marshal(record.Evaluation)
	if err != nil {
		return experimentRow{}, fmt.Errorf("marshal evaluation: %w", err)
	}

	evaluatedAt := record.Evaluation.EvaluatedAt.Time()
	if evaluatedAt.IsZero() {
		evaluatedAt = time.Now().UTC()
	}

	return experimentRow{
		ID:          exp.ID.String(),
		Name:        exp.Name,
		Kind:        string(exp.Kind),
		Params:      params,
		Input:       input,
		Evaluation:  evaluation,
		Fingerprint: exp.Fingerprint().String(),
		CreatedAt:   exp.CreatedAt.Time(),
		EvaluatedAt: evaluatedAt,
	}, nil
}

func fromRow(row experimentRow) (*experiment.Record, error) {
	exp := experiment.Experiment{
		ID:        core.ExperimentID(row.ID),
		Name:      row.Name,
		Kind:      experiment.Kind(row.Kind),
		CreatedAt: core.NewTimestamp(row.CreatedAt.UTC()),
	}
	if err := json.Unmarshal(row.Params, &exp.Params); err != nil {
		return nil, fmt.Errorf("decode params of %s: %w", row.ID, err)
	}

	switch exp.Kind {
	case experiment.KindMeans:
		var in experiment.MeanComparisonInput
		if err := json.Unmarshal(row.Input, &in); err != nil {
			return nil, fmt.Errorf("decode input of %s: %w", row.ID, err)
		}
		exp.Means = &in
	case experiment.KindProportions:
		var in experiment.ProportionComparisonInput
		if err := json.Unmarshal(row.Input, &in); err != nil {
			return nil, fmt.Errorf("decode input of %s: %w", row.ID, err)
		}
		exp.Proportions = &in
	default:
		return nil, fmt.Errorf("experiment %s has unknown kind %q", row.ID, row.Kind)
	}

	var eval experiment.Evaluation
	if err := json.Unmarshal(row.Evaluation, &eval); err != nil {
		return nil, fmt.Errorf("decode evaluation of %s: %w", row.ID, err)
	}
	eval.EvaluatedAt = core.NewTimestamp(row.EvaluatedAt.UTC())

	return &experiment.Record{Experiment: exp, Evaluation: eval}, nil
}
