package markov

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// SetupSchema initializes the tables and reserved vocabulary rows used by
// Store in the provided database. It should be called once on a new
// database; it is idempotent and safe to call again.
func SetupSchema(db *sql.DB) error {
	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaPrefixes = `
CREATE TABLE IF NOT EXISTS markov_prefixes (
    prefix_id INTEGER PRIMARY KEY,
    prefix_text TEXT NOT NULL UNIQUE
);
`
		schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL,
    start_text TEXT NOT NULL,
    end_text TEXT NOT NULL
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS markov_chains (
    model_id INTEGER NOT NULL,
    prefix_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, prefix_id, next_token_id)
);
`
		// The reserved rows pin token_ids 0 and 1 for the sentinels. Their
		// text is a placeholder; each model row carries its own encoded
		// sentinel values.
		reservedTokens = `
INSERT OR IGNORE INTO markov_vocabulary (token_id, token_text) VALUES (0, '<SOC>'), (1, '<EOC>');
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range []string{schemaVocab, schemaPrefixes, schemaModels, schemaChains, reservedTokens} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// ModelInfo holds the metadata for one persisted chain.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// ModelStats holds aggregate statistics for one persisted chain.
type ModelStats struct {
	Contexts       int // distinct prefixes with at least one link
	Links          int // distinct (prefix, next token) rows
	TotalFrequency int // sum of link frequencies
	Starters       int // links out of the all-start prefix
}

// Store persists chains in a SQLite database, any number of named models
// per database. Tokens are rendered to text through an injectable codec,
// so any token type with a stable string form can be stored.
type Store[T comparable] struct {
	db     *sql.DB
	encode func(T) (string, error)
	decode func(string) (T, error)
	logger *slog.Logger

	stmtGetModel      *sql.Stmt
	stmtGetModels     *sql.Stmt
	stmtUpsertModel   *sql.Stmt
	stmtDeleteChains  *sql.Stmt
	stmtDeleteModel   *sql.Stmt
	stmtInsertVocab   *sql.Stmt
	stmtInsertPrefix  *sql.Stmt
	stmtGetPrefixID   *sql.Stmt
	stmtGetChains     *sql.Stmt
	stmtCountChains   *sql.Stmt
	stmtCountContexts *sql.Stmt
	stmtSumFreq       *sql.Stmt
	stmtCountStarters *sql.Stmt
	stmtPruneModel    *sql.Stmt
}

// NewStore creates a Store over an initialized database (see SetupSchema)
// with the given token codec. All statements are prepared up front.
func NewStore[T comparable](db *sql.DB, encode func(T) (string, error), decode func(string) (T, error)) (*Store[T], error) {
	s := &Store[T]{
		db:     db,
		encode: encode,
		decode: decode,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	prepared := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetModel, `SELECT model_id, model_order, start_text, end_text FROM markov_models WHERE model_name = ?;`},
		{&s.stmtGetModels, `SELECT model_id, model_name, model_order FROM markov_models;`},
		{&s.stmtUpsertModel, `INSERT INTO markov_models (model_name, model_order, start_text, end_text) VALUES (?, ?, ?, ?)
			ON CONFLICT(model_name) DO UPDATE SET model_order = excluded.model_order, start_text = excluded.start_text, end_text = excluded.end_text
			RETURNING model_id;`},
		{&s.stmtDeleteChains, `DELETE FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtDeleteModel, `DELETE FROM markov_models WHERE model_id = ?;`},
		{&s.stmtInsertVocab, `INSERT INTO markov_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text = excluded.token_text RETURNING token_id;`},
		{&s.stmtInsertPrefix, `INSERT INTO markov_prefixes (prefix_text) VALUES (?) ON CONFLICT(prefix_text) DO UPDATE SET prefix_text = excluded.prefix_text RETURNING prefix_id;`},
		{&s.stmtGetPrefixID, `SELECT prefix_id FROM markov_prefixes WHERE prefix_text = ?;`},
		{&s.stmtGetChains, `SELECT p.prefix_text, c.next_token_id, c.frequency FROM markov_chains c JOIN markov_prefixes p ON p.prefix_id = c.prefix_id WHERE c.model_id = ?;`},
		{&s.stmtCountChains, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtCountContexts, `SELECT COUNT(DISTINCT prefix_id) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtSumFreq, `SELECT coalesce(SUM(frequency), 0) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtCountStarters, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ? AND prefix_id = ?;`},
		{&s.stmtPruneModel, `DELETE FROM markov_chains WHERE model_id = ? AND frequency <= ?;`},
	}
	for _, p := range prepared {
		stmt, err := db.Prepare(p.query)
		if err != nil {
			return nil, err
		}
		*p.dst = stmt
	}
	return s, nil
}

// NewTextStore creates a Store for string chains with an identity codec.
func NewTextStore(db *sql.DB) (*Store[string], error) {
	identity := func(s string) (string, error) { return s, nil }
	return NewStore[string](db, identity, identity)
}

// NewJSONStore creates a Store that renders tokens through encoding/json,
// for token types without a natural string form.
func NewJSONStore[T comparable](db *sql.DB) (*Store[T], error) {
	return NewStore[T](db,
		func(tok T) (string, error) {
			b, err := json.Marshal(tok)
			return string(b), err
		},
		func(text string) (T, error) {
			var tok T
			err := json.Unmarshal([]byte(text), &tok)
			return tok, err
		})
}

// Close releases all prepared statements held by the store.
func (s *Store[T]) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetModel, s.stmtGetModels, s.stmtUpsertModel, s.stmtDeleteChains,
		s.stmtDeleteModel, s.stmtInsertVocab, s.stmtInsertPrefix, s.stmtGetPrefixID,
		s.stmtGetChains, s.stmtCountChains, s.stmtCountContexts, s.stmtSumFreq,
		s.stmtCountStarters, s.stmtPruneModel,
	} {
		_ = stmt.Close()
	}
}

// SetLogger sets the logger for the store. By default all logs are discarded.
func (s *Store[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Models lists all persisted models.
func (s *Store[T]) Models(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var models []ModelInfo
	for rows.Next() {
		var m ModelInfo
		if err = rows.Scan(&m.Id, &m.Name, &m.Order); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// modelRow resolves a model by name, including its encoded sentinels.
func (s *Store[T]) modelRow(ctx context.Context, name string) (info ModelInfo, startText, endText string, err error) {
	info.Name = name
	err = s.stmtGetModel.QueryRowContext(ctx, name).Scan(&info.Id, &info.Order, &startText, &endText)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("model %q: %w", name, ErrUnknownModel)
	}
	return info, startText, endText, err
}

// Save persists a chain under the given name, replacing any previous
// snapshot of that model. The whole operation runs in one transaction.
func (s *Store[T]) Save(ctx context.Context, name string, c *Chain[T]) error {
	startText, err := s.encode(c.start)
	if err != nil {
		return fmt.Errorf("encode start sentinel: %w", err)
	}
	endText, err := s.encode(c.end)
	if err != nil {
		return fmt.Errorf("encode end sentinel: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelID int
	if err = tx.StmtContext(ctx, s.stmtUpsertModel).QueryRowContext(ctx, name, c.order, startText, endText).Scan(&modelID); err != nil {
		return fmt.Errorf("failed to upsert model %q: %w", name, err)
	}
	if _, err = tx.StmtContext(ctx, s.stmtDeleteChains).ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("failed to clear old chains for model %q: %w", name, err)
	}

	// Map internal token IDs to database vocabulary IDs. Sentinels are
	// positional on both sides.
	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	idMap := make([]int, len(c.tokens))
	idMap[startID] = startID
	idMap[endID] = endID
	for id := firstUserID; id < len(c.tokens); id++ {
		text, err := s.encode(c.tokens[id])
		if err != nil {
			return fmt.Errorf("encode token: %w", err)
		}
		if err = stmtInsertVocab.QueryRowContext(ctx, text).Scan(&idMap[id]); err != nil {
			return fmt.Errorf("failed to get/insert vocab %q: %w", text, err)
		}
	}

	stmtInsertPrefix := tx.StmtContext(ctx, s.stmtInsertPrefix)
	stmtInsertChain, err := tx.PrepareContext(ctx, `
		INSERT INTO markov_chains (model_id, prefix_id, next_token_id, frequency) VALUES (?, ?, ?, ?)
		ON CONFLICT(model_id, prefix_id, next_token_id) DO UPDATE SET frequency = frequency + excluded.frequency;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare chain insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertChain)

	var links int
	var keyBuf []byte
	dbIDs := make([]int, c.order)
	for key, d := range c.table.m {
		ctxIDs := parseContextKey(key)
		for i, id := range ctxIDs {
			dbIDs[i] = idMap[id]
		}
		keyBuf = appendContextKey(keyBuf[:0], dbIDs)

		var prefixID int
		if err = stmtInsertPrefix.QueryRowContext(ctx, string(keyBuf)).Scan(&prefixID); err != nil {
			return fmt.Errorf("failed to get/insert prefix %q: %w", keyBuf, err)
		}
		for next, freq := range d.counts {
			if _, err = stmtInsertChain.ExecContext(ctx, modelID, prefixID, idMap[next], freq); err != nil {
				return fmt.Errorf("failed to insert chain link (%d -> %d): %w", prefixID, idMap[next], err)
			}
			links++
		}
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int("model_id", modelID),
		slog.Int("contexts", c.Len()),
		slog.Int("links", links),
		slog.Int("total_frequency", c.TotalFrequency()),
	)

	return tx.Commit()
}

// Load reconstructs a persisted chain. The returned chain is fully
// independent of the database and can be trained further and re-saved.
func (s *Store[T]) Load(ctx context.Context, name string) (*Chain[T], error) {
	info, startText, endText, err := s.modelRow(ctx, name)
	if err != nil {
		return nil, err
	}
	start, err := s.decode(startText)
	if err != nil {
		return nil, fmt.Errorf("decode start sentinel: %w", err)
	}
	end, err := s.decode(endText)
	if err != nil {
		return nil, fmt.Errorf("decode end sentinel: %w", err)
	}
	c, err := New[T](info.Order, start, end)
	if err != nil {
		return nil, err
	}

	type linkRow struct {
		prefix []int
		next   int
		freq   int
	}
	rows, err := s.stmtGetChains.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query chains for model %q: %w", name, err)
	}
	var links []linkRow
	needed := make(map[int]struct{})
	for rows.Next() {
		var prefixText string
		var row linkRow
		if err = rows.Scan(&prefixText, &row.next, &row.freq); err != nil {
			_ = rows.Close()
			return nil, err
		}
		row.prefix = parseContextKey(prefixText)
		for _, id := range row.prefix {
			if id >= firstUserID {
				needed[id] = struct{}{}
			}
		}
		if row.next >= firstUserID {
			needed[row.next] = struct{}{}
		}
		links = append(links, row)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	texts, err := s.vocabTexts(ctx, needed)
	if err != nil {
		return nil, err
	}

	// Re-intern the stored vocabulary into the fresh chain.
	idMap := make(map[int]int, len(texts)+firstUserID)
	idMap[startID] = startID
	idMap[endID] = endID
	for dbID, text := range texts {
		tok, err := s.decode(text)
		if err != nil {
			return nil, fmt.Errorf("decode token %q: %w", text, err)
		}
		idMap[dbID] = c.intern(tok)
	}

	var keyBuf []byte
	ctxIDs := make([]int, info.Order)
	for _, row := range links {
		if len(row.prefix) != info.Order {
			return nil, fmt.Errorf("consistency error: model %q has a %d-token prefix, want %d", name, len(row.prefix), info.Order)
		}
		for i, dbID := range row.prefix {
			id, ok := idMap[dbID]
			if !ok {
				return nil, fmt.Errorf("consistency error: token id %d missing from vocabulary", dbID)
			}
			ctxIDs[i] = id
		}
		next, ok := idMap[row.next]
		if !ok {
			return nil, fmt.Errorf("consistency error: token id %d missing from vocabulary", row.next)
		}
		keyBuf = appendContextKey(keyBuf[:0], ctxIDs)
		c.table.add(string(keyBuf), next, row.freq)
	}

	s.logger.InfoContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
		slog.Int("links", len(links)),
	)

	return c, nil
}

// vocabTexts fetches the texts for a set of vocabulary IDs in batches,
// staying clear of SQLite's bound-variable limit.
func (s *Store[T]) vocabTexts(ctx context.Context, ids map[int]struct{}) (map[int]string, error) {
	texts := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return texts, nil
	}

	const batchSize = 500
	args := make([]interface{}, 0, batchSize)
	flat := make([]int, 0, len(ids))
	for id := range ids {
		flat = append(flat, id)
	}

	for i := 0; i < len(flat); i += batchSize {
		end := min(i+batchSize, len(flat))
		args = args[:0]
		for _, id := range flat[i:end] {
			args = append(args, id)
		}
		query := fmt.Sprintf(`SELECT token_id, token_text FROM markov_vocabulary WHERE token_id IN (?%s)`,
			strings.Repeat(",?", len(args)-1))
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id int
			var text string
			if err = rows.Scan(&id, &text); err != nil {
				_ = rows.Close()
				return nil, err
			}
			texts[id] = text
		}
		_ = rows.Close()
		if err = rows.Err(); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

// Remove deletes a model and all of its chain data.
func (s *Store[T]) Remove(ctx context.Context, name string) error {
	info, _, _, err := s.modelRow(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.StmtContext(ctx, s.stmtDeleteChains).ExecContext(ctx, info.Id); err != nil {
		return fmt.Errorf("failed to remove chains for model %d: %w", info.Id, err)
	}
	if _, err = tx.StmtContext(ctx, s.stmtDeleteModel).ExecContext(ctx, info.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", info.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
	)

	return tx.Commit()
}

// Prune deletes links with frequency at or below minFreq from a persisted
// model, mirroring Chain.Prune for stored snapshots.
func (s *Store[T]) Prune(ctx context.Context, name string, minFreq int) error {
	info, _, _, err := s.modelRow(ctx, name)
	if err != nil {
		return err
	}
	res, err := s.stmtPruneModel.ExecContext(ctx, info.Id, minFreq)
	if err != nil {
		return fmt.Errorf("could not prune model %d: %w", info.Id, err)
	}
	removed, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Model pruned",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
		slog.Int("min_frequency", minFreq),
		slog.Int64("links_removed", removed),
	)
	return nil
}

// ModelStats returns aggregate statistics for a persisted model.
func (s *Store[T]) ModelStats(ctx context.Context, name string) (ModelStats, error) {
	info, _, _, err := s.modelRow(ctx, name)
	if err != nil {
		return ModelStats{}, err
	}

	var stats ModelStats
	if err = s.stmtCountContexts.QueryRowContext(ctx, info.Id).Scan(&stats.Contexts); err != nil {
		return ModelStats{}, err
	}
	if err = s.stmtCountChains.QueryRowContext(ctx, info.Id).Scan(&stats.Links); err != nil {
		return ModelStats{}, err
	}
	if err = s.stmtSumFreq.QueryRowContext(ctx, info.Id).Scan(&stats.TotalFrequency); err != nil {
		return ModelStats{}, err
	}

	startPrefix := string(appendContextKey(nil, make([]int, info.Order)))
	var startPrefixID int
	err = s.stmtGetPrefixID.QueryRowContext(ctx, startPrefix).Scan(&startPrefixID)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return ModelStats{}, err
	}
	if err = s.stmtCountStarters.QueryRowContext(ctx, info.Id, startPrefixID).Scan(&stats.Starters); err != nil {
		return ModelStats{}, err
	}
	return stats, nil
}
