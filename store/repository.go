package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	ck "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/internal/log"
)

// Repository saves and loads contracts through a DocumentStore. The format
// of each document follows its location's extension (".yaml"/".yml" is YAML,
// anything else JSON).
type Repository struct {
	docs DocumentStore
	mig  *ck.Migrator
	opt  ck.ParseOpt
}

// Option configures a Repository.
type Option func(*Repository)

// WithMigrator selects the migrator, and with it the registry, used when
// loading. The default is ck.DefaultMigrator().
func WithMigrator(m *ck.Migrator) Option { return func(r *Repository) { r.mig = m } }

// WithParseOpt sets the decoding options applied on load.
func WithParseOpt(opt ck.ParseOpt) Option { return func(r *Repository) { r.opt = opt } }

// NewRepository returns a repository over docs.
func NewRepository(docs DocumentStore, opts ...Option) *Repository {
	r := &Repository{docs: docs, mig: ck.DefaultMigrator()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Documents returns the underlying store.
func (r *Repository) Documents() DocumentStore { return r.docs }

// NewLocation returns a fresh, unique location for a document of format f.
func NewLocation(f ck.Format) string {
	return "contract-" + uuid.NewString() + "." + f.String()
}

// Save encodes c and writes it to location.
func (r *Repository) Save(ctx context.Context, location string, c ck.Contract) error {
	if err := ValidateLocation(location); err != nil {
		return err
	}
	b, err := ck.Encode(c, ck.FormatFromPath(location))
	if err != nil {
		return fmt.Errorf("save %s: %w", location, err)
	}
	if err := r.docs.Write(ctx, location, b); err != nil {
		return fmt.Errorf("save %s: %w", location, err)
	}
	log.Debug(log.CatStore, "saved contract", "location", location, "version", c.SchemaVersion())
	return nil
}

// Load reads and validates the document at location, keeping its version.
func (r *Repository) Load(ctx context.Context, location string) (ck.Contract, error) {
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}
	b, err := r.docs.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	c, err := r.mig.Registry().ParseFrom(ctx, ck.Bytes(b, ck.FormatFromPath(location)), r.opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	return c, nil
}

// LoadLatest loads the document at location and migrates it to the latest
// version. The stored document is not modified.
func (r *Repository) LoadLatest(ctx context.Context, location string) (ck.Contract, error) {
	c, err := r.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	out, err := r.mig.Migrate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	return out, nil
}

// MigrateInPlace upgrades the stored document at location to the latest
// version. It writes only when the version changed and reports whether it
// did.
func (r *Repository) MigrateInPlace(ctx context.Context, location string) (ck.Contract, bool, error) {
	c, err := r.Load(ctx, location)
	if err != nil {
		return nil, false, err
	}
	out, err := r.mig.Migrate(ctx, c)
	if err != nil {
		return nil, false, fmt.Errorf("migrate %s: %w", location, err)
	}
	if out.SchemaVersion() == c.SchemaVersion() {
		return out, false, nil
	}
	if err := r.Save(ctx, location, out); err != nil {
		return nil, false, err
	}
	log.Info(log.CatStore, "migrated stored contract", "location", location, "from", c.SchemaVersion(), "to", out.SchemaVersion())
	return out, true, nil
}
