package journal

import (
	"context"
	"time"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/policy"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type Config struct {
	ConnectString string
}

// Entry is a locally submitted transaction the pool accepted.
type Entry struct {
	Hash       ingress.Uint256 `db:"hash"`
	Size       int             `db:"size"`
	Validator  string          `db:"validator"`
	AcceptedAt time.Time       `db:"accepted_at"`
}

// PGJournal keeps a record of locally accepted transactions in
// postgres.
type PGJournal struct {
	db *sqlx.DB
}

func NewPGJournal(cfg Config) (*PGJournal, error) {
	conn, err := sqlx.Connect("postgres", cfg.ConnectString)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	j := &PGJournal{db: conn}
	if err := j.createTables(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("Admission journal ready")
	return j, nil
}

func (j *PGJournal) createTables() error {
	stmt := `
CREATE TABLE IF NOT EXISTS local_txs (
  hash        BYTEA PRIMARY KEY
 ,size        INT NOT NULL
 ,validator   TEXT NOT NULL
 ,accepted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS local_txs_accepted_at_idx ON local_txs(accepted_at);
`
	if _, err := j.db.Exec(stmt); err != nil {
		return errors.Wrap(err, "creating tables")
	}
	return nil
}

func (j *PGJournal) Close() error {
	return j.db.Close()
}

// RecordLocalTx records an accepted transaction. Recording the same
// hash twice keeps the first entry.
func (j *PGJournal) RecordLocalTx(ctx context.Context, hash ingress.Uint256,
	size int, validator policy.OutputsValidator) error {

	stmt := "INSERT INTO local_txs (hash, size, validator) VALUES ($1, $2, $3) " +
		"ON CONFLICT (hash) DO NOTHING"
	if _, err := j.db.ExecContext(ctx, stmt, hash, size, validator.String()); err != nil {
		return errors.Wrapf(err, "recording tx %v", hash)
	}
	log.Debugf("Recorded local tx %v", hash)
	return nil
}

// Recent returns the latest limit entries, newest first.
func (j *PGJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	stmt := "SELECT hash, size, validator, accepted_at FROM local_txs " +
		"ORDER BY accepted_at DESC LIMIT $1"

	var entries []Entry
	if err := j.db.SelectContext(ctx, &entries, stmt, limit); err != nil {
		return nil, errors.Wrap(err, "selecting recent txs")
	}
	return entries, nil
}

// Lookup returns the entries among hashes, in no particular order.
func (j *PGJournal) Lookup(ctx context.Context, hashes []ingress.Uint256) ([]Entry, error) {
	stmt := "SELECT hash, size, validator, accepted_at FROM local_txs " +
		"WHERE hash = ANY($1)"

	var entries []Entry
	if err := j.db.SelectContext(ctx, &entries, stmt, pq.Array(hashParams(hashes))); err != nil {
		return nil, errors.Wrap(err, "looking up txs")
	}
	return entries, nil
}

func hashParams(hashes []ingress.Uint256) [][]byte {
	result := make([][]byte, len(hashes))
	for i := range hashes {
		result[i] = hashes[i][:]
	}
	return result
}
