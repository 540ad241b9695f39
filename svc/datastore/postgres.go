package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/ideabox/pkg/pg"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Postgres stores ideas and subscriptions in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// db returns the transaction started by WithOwnerLock, if any.
func (p *Postgres) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

// WithOwnerLock runs fn inside a transaction holding an advisory lock on
// the owner. Concurrent callers for the same owner wait for each other; the
// lock is released on commit or rollback.
func (p *Postgres) WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return errors.New("datastore: owner lock already held")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return fmt.Errorf("failed to lock owner: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) ListIdeas(ctx context.Context, ownerID string) ([]idea.Idea, error) {
	rows, err := p.db(ctx).Query(ctx, `
		SELECT id::text, owner_id, title, description, category, tags, created_at
		FROM ideas
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	ideas := []idea.Idea{}
	for rows.Next() {
		var i idea.Idea
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.Title, &i.Description, &i.Category, &i.Tags, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		if i.Tags == nil {
			i.Tags = []string{}
		}
		ideas = append(ideas, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ideas: %w", err)
	}

	return ideas, nil
}

func (p *Postgres) CountIdeas(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := p.db(ctx).QueryRow(ctx, `SELECT count(*) FROM ideas WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}
	return n, nil
}

func (p *Postgres) InsertIdea(ctx context.Context, i idea.Idea) (*idea.Idea, error) {
	if i.Tags == nil {
		i.Tags = []string{}
	}
	err := p.db(ctx).QueryRow(ctx, `
		INSERT INTO ideas (owner_id, title, description, category, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`, i.OwnerID, i.Title, i.Description, i.Category, i.Tags).Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert idea: %w", err)
	}
	return &i, nil
}

// DeleteIdea ignores IDs that are not UUIDs: no row can match them.
func (p *Postgres) DeleteIdea(ctx context.Context, ownerID, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := p.db(ctx).Exec(ctx, `DELETE FROM ideas WHERE id = $1 AND owner_id = $2`, parsed.String(), ownerID); err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}
	return nil
}

func (p *Postgres) GetSubscription(ctx context.Context, ownerID string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := p.db(ctx).QueryRow(ctx, `
		SELECT owner_id, plan, status, customer_ref, subscription_ref, updated_at
		FROM subscriptions
		WHERE owner_id = $1
	`, ownerID).Scan(&s.OwnerID, &s.Plan, &s.Status, &s.CustomerRef, &s.SubscriptionRef, &s.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

func (p *Postgres) UpsertSubscription(ctx context.Context, s subscription.Subscription) error {
	_, err := p.db(ctx).Exec(ctx, `
		INSERT INTO subscriptions (owner_id, plan, status, customer_ref, subscription_ref, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			customer_ref = EXCLUDED.customer_ref,
			subscription_ref = EXCLUDED.subscription_ref,
			updated_at = EXCLUDED.updated_at
	`, s.OwnerID, s.Plan, string(s.Status), s.CustomerRef, s.SubscriptionRef, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateSubscriptionStatus(ctx context.Context, ref string, status subscription.Status, at time.Time) (int64, error) {
	tag, err := p.db(ctx).Exec(ctx, `
		UPDATE subscriptions
		SET status = $2, updated_at = $3
		WHERE subscription_ref = $1
	`, ref, string(status), at)
	if err != nil {
		return 0, fmt.Errorf("failed to update subscription status: %w", err)
	}
	return tag.RowsAffected(), nil
}
