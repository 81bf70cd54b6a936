package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Profile is the entity-level state that survives restart: position, hull,
// cargo. Active interaction sessions are never persisted; after a restart
// clients simply re-request.
type Profile struct {
	ActorID string
	Faction string
	Credits float64
	Hull    float64
	MaxHull float64
	PosX    float64
	PosY    float64
	Cargo   map[string]float64
}

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Load fetches a profile; a first-time actor gets a zero-value profile.
func (r *ProfileRepo) Load(ctx context.Context, actorID string) (*Profile, error) {
	p := &Profile{ActorID: actorID, Cargo: map[string]float64{}}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT faction, credits, hull, max_hull, pos_x, pos_y, cargo
		 FROM profiles WHERE actor_id = $1`,
		actorID,
	).Scan(&p.Faction, &p.Credits, &p.Hull, &p.MaxHull, &p.PosX, &p.PosY, &p.Cargo)
	if errors.Is(err, pgx.ErrNoRows) {
		p.Hull, p.MaxHull = 100, 100
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", actorID, err)
	}
	return p, nil
}

// Save upserts a profile.
func (r *ProfileRepo) Save(ctx context.Context, p *Profile) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO profiles (actor_id, faction, credits, hull, max_hull, pos_x, pos_y, cargo, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (actor_id) DO UPDATE SET
		   faction = EXCLUDED.faction,
		   credits = EXCLUDED.credits,
		   hull = EXCLUDED.hull,
		   max_hull = EXCLUDED.max_hull,
		   pos_x = EXCLUDED.pos_x,
		   pos_y = EXCLUDED.pos_y,
		   cargo = EXCLUDED.cargo,
		   last_seen = now()`,
		p.ActorID, p.Faction, p.Credits, p.Hull, p.MaxHull, p.PosX, p.PosY, p.Cargo,
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ActorID, err)
	}
	return nil
}

// SaveBatch saves profiles in one transaction.
func (r *ProfileRepo) SaveBatch(ctx context.Context, profiles []*Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range profiles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (actor_id, faction, credits, hull, max_hull, pos_x, pos_y, cargo, last_seen)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			 ON CONFLICT (actor_id) DO UPDATE SET
			   faction = EXCLUDED.faction,
			   credits = EXCLUDED.credits,
			   hull = EXCLUDED.hull,
			   max_hull = EXCLUDED.max_hull,
			   pos_x = EXCLUDED.pos_x,
			   pos_y = EXCLUDED.pos_y,
			   cargo = EXCLUDED.cargo,
			   last_seen = now()`,
			p.ActorID, p.Faction, p.Credits, p.Hull, p.MaxHull, p.PosX, p.PosY, p.Cargo,
		); err != nil {
			return fmt.Errorf("batch save %s: %w", p.ActorID, err)
		}
	}
	return tx.Commit(ctx)
}
