package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the settings row.
type Repository interface {
	// GetOrCreate returns the stored document, inserting defaults first
	// when the row is missing.
	GetOrCreate(ctx context.Context, defaults Settings) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const settingsColumns = `site_name, about_content, contact_email, contact_phone, mission, vision,
faqs, features, club_info_steps, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSettings(row scanner) (Settings, error) {
	var s Settings
	var faqs, features, steps []byte
	if err := row.Scan(&s.SiteName, &s.AboutContent, &s.ContactEmail, &s.ContactPhone, &s.Mission,
		&s.Vision, &faqs, &features, &steps, &s.UpdatedAt); err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(faqs, &s.FAQs); err != nil {
		return Settings{}, fmt.Errorf("decode faqs: %w", err)
	}
	if err := json.Unmarshal(features, &s.Features); err != nil {
		return Settings{}, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal(steps, &s.ClubInfoSteps); err != nil {
		return Settings{}, fmt.Errorf("decode club info steps: %w", err)
	}
	return s, nil
}

func encodeLists(s Settings) (faqs, features, steps []byte, err error) {
	if faqs, err = json.Marshal(nonNil(s.FAQs)); err != nil {
		return
	}
	if features, err = json.Marshal(nonNil(s.Features)); err != nil {
		return
	}
	steps, err = json.Marshal(nonNil(s.ClubInfoSteps))
	return
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

const upsert = `INSERT INTO site_settings
(id, site_name, about_content, contact_email, contact_phone, mission, vision, faqs, features, club_info_steps)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *repository) GetOrCreate(ctx context.Context, defaults Settings) (Settings, error) {
	faqs, features, steps, err := encodeLists(defaults)
	if err != nil {
		return Settings{}, err
	}
	if _, err := r.db.Exec(ctx, upsert+` ON CONFLICT (id) DO NOTHING`,
		defaults.SiteName, defaults.AboutContent, defaults.ContactEmail, defaults.ContactPhone,
		defaults.Mission, defaults.Vision, faqs, features, steps); err != nil {
		return Settings{}, fmt.Errorf("seed settings: %w", err)
	}
	return scanSettings(r.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM site_settings WHERE id = 1`))
}

func (r *repository) Save(ctx context.Context, s Settings) (Settings, error) {
	faqs, features, steps, err := encodeLists(s)
	if err != nil {
		return Settings{}, err
	}
	return scanSettings(r.db.QueryRow(ctx, upsert+` ON CONFLICT (id) DO UPDATE SET
site_name = EXCLUDED.site_name, about_content = EXCLUDED.about_content,
contact_email = EXCLUDED.contact_email, contact_phone = EXCLUDED.contact_phone,
mission = EXCLUDED.mission, vision = EXCLUDED.vision, faqs = EXCLUDED.faqs,
features = EXCLUDED.features, club_info_steps = EXCLUDED.club_info_steps, updated_at = NOW()
RETURNING `+settingsColumns,
		s.SiteName, s.AboutContent, s.ContactEmail, s.ContactPhone, s.Mission, s.Vision, faqs, features, steps))
}
