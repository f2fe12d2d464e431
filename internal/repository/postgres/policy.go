package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

// policyLockID serialises concurrent activations so the previous active row
// is always visible to the next switch.
const policyLockID int64 = 0x706f6c6963790001

const policyColumns = `id, name, active, updated_by, updated_at`

// PolicyRepository implements repository.PolicyRepository using PostgreSQL.
type PolicyRepository struct {
	pool database.Pool
}

// NewPolicyRepository creates a new PostgreSQL-backed policy repository.
func NewPolicyRepository(pool database.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

func scanPolicy(row scanner) (*domain.AllocationPolicy, error) {
	var p domain.AllocationPolicy
	if err := row.Scan(&p.ID, &p.Name, &p.Active, &p.UpdatedBy, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every configured policy, active first.
func (r *PolicyRepository) List(ctx context.Context) ([]domain.AllocationPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM allocation_policies ORDER BY active DESC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	policies := []domain.AllocationPolicy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		policies = append(policies, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy rows: %w", err)
	}
	return policies, nil
}

// GetActive returns the active policy.
func (r *PolicyRepository) GetActive(ctx context.Context) (*domain.AllocationPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM allocation_policies WHERE active LIMIT 1`

	p, err := scanPolicy(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return p, nil
}

// SetActive deactivates every policy and activates name in one transaction.
// A name with no row yet is inserted.
func (r *PolicyRepository) SetActive(ctx context.Context, name, actorID string) (*domain.AllocationPolicy, error) {
	var active *domain.AllocationPolicy

	err := database.RunInTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", policyLockID); err != nil {
			return fmt.Errorf("lock policies: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE allocation_policies
			SET active = FALSE, updated_by = $1, updated_at = NOW()
			WHERE active`, actorID); err != nil {
			return fmt.Errorf("deactivate policies: %w", err)
		}

		p, err := scanPolicy(tx.QueryRow(ctx, `
			INSERT INTO allocation_policies (name, active, updated_by, updated_at)
			VALUES ($1, TRUE, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET
				active = TRUE,
				updated_by = EXCLUDED.updated_by,
				updated_at = EXCLUDED.updated_at
			RETURNING `+policyColumns, name, actorID))
		if err != nil {
			return fmt.Errorf("activate policy %q: %w", name, err)
		}
		active = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set active policy: %w", err)
	}
	return active, nil
}
