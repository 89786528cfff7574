// Package store implements the durable TTL-indexed cache for Nostr profiles
// and relay descriptors, plus the atomic per-session daily rate counter that
// backs the paywall gate. It is backed by an embedded SQLite database
// (modernc.org/sqlite, no cgo) in WAL mode with a small connection pool, in
// front of which sits a bounded in-memory LRU for hot reads.
//
// Schema creation is idempotent: all three tables are created with
// CREATE TABLE IF NOT EXISTS on first open.
package store

import (
	"container/list"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	_ "modernc.org/sqlite"
)

// DefaultMaxOpenConns caps the number of concurrent writers against the
// SQLite database.
const DefaultMaxOpenConns = 5

// profileCacheSize bounds the in-memory read-through cache fronting the
// profiles table. It holds recently seen CachedProfile values keyed by
// pubkey; a miss always falls through to SQLite, which remains the source
// of truth for TTL expiry.
const profileCacheSize = 2048

// CachedProfile is a cached Nostr kind:0 profile, keyed by lowercase hex
// pubkey.
type CachedProfile struct {
	Pubkey      string
	Name        string
	DisplayName string
	About       string
	Picture     string
	Banner      string
	Nip05       string
	Lud16       string
	Website     string
	CachedAt    time.Time
	ExpiresAt   time.Time
}

// CachedRelayDescriptor is a cached NIP-11 relay info document plus the
// liveness probe result that produced it.
type CachedRelayDescriptor struct {
	RelayURL      string
	Name          string
	Description   string
	SupportedNIPs []uint32
	Software      string
	Version       string
	Online        bool
	LatencyMS     *int64
	CachedAt      time.Time
	ExpiresAt     time.Time
}

// Store is the process-wide singleton owning the SQLite connection pool. All
// methods are safe for concurrent use.
type Store struct {
	db             *sql.DB
	clock          clock.Clock
	profileTTL     time.Duration
	relayTTL       time.Duration
	profileReadLRU *profileLRU
}

// profileLRU is a small bounded read-through cache fronting the profiles
// table. Unlike the durable table, entries here are never the source of
// truth: a miss always falls through to SQLite, which alone enforces TTL
// expiry. Kept as a plain container/list-backed map rather than reaching
// for a generic LRU dependency whose exact cache-eviction semantics this
// package doesn't otherwise need.
type profileLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type profileLRUEntry struct {
	key   string
	value *CachedProfile
}

func newProfileLRU(capacity int) *profileLRU {
	return &profileLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *profileLRU) Get(key string) (*CachedProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*profileLRUEntry).value, true
}

func (c *profileLRU) Put(key string, value *CachedProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*profileLRUEntry).value = value
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&profileLRUEntry{key: key, value: value})
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*profileLRUEntry).key)
	}
}

func (c *profileLRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Option customizes a Store at construction time.
type Option func(*Store)

// WithClock overrides the clock used for TTL and day-ordinal computation.
// Intended for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open creates (if needed) and opens the SQLite database at path, puts it in
// WAL journal mode, applies the idempotent schema, and returns a ready
// Store. profileTTL and relayTTL are the cache lifetimes for the two cache
// tables.
func Open(path string, profileTTL, relayTTL time.Duration, opts ...Option) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)

	s := &Store{
		db:             db,
		clock:          clock.NewDefaultClock(),
		profileTTL:     profileTTL,
		relayTTL:       relayTTL,
		profileReadLRU: newProfileLRU(profileCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			pubkey TEXT PRIMARY KEY NOT NULL,
			name TEXT,
			display_name TEXT,
			about TEXT,
			picture TEXT,
			banner TEXT,
			nip05 TEXT,
			lud16 TEXT,
			website TEXT,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_expires ON profiles(expires_at)`,
		`CREATE TABLE IF NOT EXISTS relay_info (
			relay_url TEXT PRIMARY KEY NOT NULL,
			name TEXT,
			description TEXT,
			supported_nips TEXT,
			software TEXT,
			version TEXT,
			online INTEGER NOT NULL DEFAULT 1,
			latency_ms INTEGER,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relay_info_expires ON relay_info(expires_at)`,
		`CREATE TABLE IF NOT EXISTS rate_limits (
			session_id TEXT NOT NULL,
			day_ordinal INTEGER NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, day_ordinal)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

func (s *Store) now() time.Time { return s.clock.Now().UTC() }

// Now returns the store's current time as seen through its injected
// clock. Callers that need to compute a DayOrdinal consistent with this
// store's cache expiry should use this rather than time.Now() directly.
func (s *Store) Now() time.Time { return s.now() }

// GetProfile returns the cached profile for pubkey, or ok=false if absent or
// expired. A row with expires_at <= now is treated as a miss and never
// returned.
func (s *Store) GetProfile(ctx context.Context, pubkey string) (*CachedProfile, bool, error) {
	if cached, ok := s.profileReadLRU.Get(pubkey); ok {
		if cached.ExpiresAt.After(s.now()) {
			return cached, true, nil
		}
		s.profileReadLRU.Delete(pubkey)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT pubkey, name, display_name, about, picture, banner, nip05,
		       lud16, website, cached_at, expires_at
		FROM profiles WHERE pubkey = ? AND expires_at > ?`,
		pubkey, s.now().Unix())

	var (
		p                                          CachedProfile
		name, displayName, about, picture, banner sql.NullString
		nip05, lud16, website                     sql.NullString
		cachedAt, expiresAt                       int64
	)
	err := row.Scan(&p.Pubkey, &name, &displayName, &about, &picture,
		&banner, &nip05, &lud16, &website, &cachedAt, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		log.Warnf("get_profile(%s) failed, treating as cache miss: %v",
			pubkey, err)
		return nil, false, fmt.Errorf("get profile: %w", err)
	}

	p.Name, p.DisplayName, p.About = name.String, displayName.String, about.String
	p.Picture, p.Banner = picture.String, banner.String
	p.Nip05, p.Lud16, p.Website = nip05.String, lud16.String, website.String
	p.CachedAt = time.Unix(cachedAt, 0).UTC()
	p.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	s.profileReadLRU.Put(pubkey, &p)

	return &p, true, nil
}

// SetProfile inserts or replaces the cached profile, stamping cached_at=now
// and expires_at=now+profileTTL.
func (s *Store) SetProfile(ctx context.Context, p CachedProfile) error {
	now := s.now()
	expires := now.Add(s.profileTTL)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles
			(pubkey, name, display_name, about, picture, banner, nip05,
			 lud16, website, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Pubkey, p.Name, p.DisplayName, p.About, p.Picture, p.Banner,
		p.Nip05, p.Lud16, p.Website, now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("set profile: %w", err)
	}

	p.CachedAt, p.ExpiresAt = now, expires
	s.profileReadLRU.Put(p.Pubkey, &p)

	return nil
}

// GetRelay returns the cached relay descriptor for url, or ok=false if
// absent or expired. url is used verbatim, not normalised.
func (s *Store) GetRelay(ctx context.Context, url string) (*CachedRelayDescriptor, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT relay_url, name, description, supported_nips, software,
		       version, online, latency_ms, cached_at, expires_at
		FROM relay_info WHERE relay_url = ? AND expires_at > ?`,
		url, s.now().Unix())

	var (
		d                                     CachedRelayDescriptor
		name, description, software, version sql.NullString
		supportedNIPsJSON                    sql.NullString
		online                               int
		latencyMS                            sql.NullInt64
		cachedAt, expiresAt                  int64
	)
	err := row.Scan(&d.RelayURL, &name, &description, &supportedNIPsJSON,
		&software, &version, &online, &latencyMS, &cachedAt, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		log.Warnf("get_relay(%s) failed, treating as cache miss: %v",
			url, err)
		return nil, false, fmt.Errorf("get relay: %w", err)
	}

	d.Name, d.Description = name.String, description.String
	d.Software, d.Version = software.String, version.String
	d.Online = online != 0
	if latencyMS.Valid {
		v := latencyMS.Int64
		d.LatencyMS = &v
	}
	d.CachedAt = time.Unix(cachedAt, 0).UTC()
	d.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	if supportedNIPsJSON.Valid && supportedNIPsJSON.String != "" {
		if err := json.Unmarshal([]byte(supportedNIPsJSON.String), &d.SupportedNIPs); err != nil {
			log.Warnf("corrupt supported_nips for %s: %v", url, err)
		}
	}

	return &d, true, nil
}

// SetRelay inserts or replaces the cached relay descriptor, stamping
// cached_at=now and expires_at=now+relayTTL. A descriptor with
// Online=false always carries a nil LatencyMS.
func (s *Store) SetRelay(ctx context.Context, d CachedRelayDescriptor) error {
	if !d.Online {
		d.LatencyMS = nil
	}

	now := s.now()
	expires := now.Add(s.relayTTL)

	nipsJSON, err := json.Marshal(d.SupportedNIPs)
	if err != nil {
		return fmt.Errorf("marshal supported_nips: %w", err)
	}

	online := 0
	if d.Online {
		online = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO relay_info
			(relay_url, name, description, supported_nips, software,
			 version, online, latency_ms, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RelayURL, d.Name, d.Description, string(nipsJSON), d.Software,
		d.Version, online, d.LatencyMS, now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("set relay: %w", err)
	}

	return nil
}

// DayOrdinal returns the UTC day-of-year (1..366) for t, the key used by the
// rate limit counter.
func DayOrdinal(t time.Time) int {
	return t.UTC().YearDay()
}

// CheckAndIncrementRate atomically increments the (sessionID, dayOrdinal)
// counter iff its pre-increment value is strictly less than limit, and
// reports whether the increment happened. Implemented as an
// INSERT OR IGNORE to materialize a zero row followed by a conditional
// UPDATE whose affected-row count decides the outcome. SQLite runs each
// write statement under its database-wide write lock, so the UPDATE's
// check and increment happen as one step on any pooled connection, and
// the seeding INSERT is idempotent; the pair needs no explicit
// transaction under concurrent callers.
func (s *Store) CheckAndIncrementRate(ctx context.Context, sessionID string, dayOrdinal, limit int) (bool, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rate_limits (session_id, day_ordinal, count)
		VALUES (?, ?, 0)`, sessionID, dayOrdinal); err != nil {
		return false, fmt.Errorf("seed rate counter: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rate_limits SET count = count + 1
		WHERE session_id = ? AND day_ordinal = ? AND count < ?`,
		sessionID, dayOrdinal, limit)
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected: %w", err)
	}

	return affected > 0, nil
}

// GetRateCount returns the current counter value for (sessionID,
// dayOrdinal), or 0 if no row exists yet.
func (s *Store) GetRateCount(ctx context.Context, sessionID string, dayOrdinal int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM rate_limits WHERE session_id = ? AND day_ordinal = ?`,
		sessionID, dayOrdinal).Scan(&count)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("get rate count: %w", err)
	}
	return count, nil
}

// CleanupExpired deletes expired cache rows and stale rate-limit rows from
// prior days. It is intended to be run periodically (e.g. hourly) by the
// caller; it is not invoked automatically by Store.
func (s *Store) CleanupExpired(ctx context.Context) error {
	now := s.now()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE expires_at < ?`, now.Unix()); err != nil {
		return fmt.Errorf("cleanup profiles: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM relay_info WHERE expires_at < ?`, now.Unix()); err != nil {
		return fmt.Errorf("cleanup relay_info: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE day_ordinal < ?`, DayOrdinal(now)); err != nil {
		return fmt.Errorf("cleanup rate_limits: %w", err)
	}

	return nil
}
