package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/neonwave/radioboard/internal/station"
)

// Postgres is the durable Store backed by database/sql + lib/pq.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects and runs migrations.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an already-migrated handle (used by tests).
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error { return p.db.Close() }

// pgErr maps driver errors onto the station taxonomy.
func pgErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return station.ErrNotFound
	}
	return station.StoreError(op, err)
}

const trackCols = "id, title, artist, album, duration, bitrate, genre, album_art, file_path"

func scanTrack(row interface{ Scan(...any) error }) (station.Track, error) {
	var t station.Track
	err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.Duration,
		&t.Bitrate, &t.Genre, &t.AlbumArt, &t.FilePath)
	return t, err
}

func (p *Postgres) Tracks(ctx context.Context) ([]station.Track, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT "+trackCols+" FROM tracks ORDER BY id")
	if err != nil {
		return nil, pgErr("tracks", err)
	}
	defer rows.Close()

	out := []station.Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, pgErr("tracks scan", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("tracks rows", err)
	}
	return out, nil
}

func (p *Postgres) Track(ctx context.Context, id int64) (station.Track, error) {
	t, err := scanTrack(p.db.QueryRowContext(ctx,
		"SELECT "+trackCols+" FROM tracks WHERE id = $1", id))
	if err != nil {
		return station.Track{}, pgErr("track", err)
	}
	return t, nil
}

func (p *Postgres) CreateTrack(ctx context.Context, in station.NewTrack) (station.Track, error) {
	bitrate := in.Bitrate
	if bitrate == "" {
		bitrate = "320 kbps"
	}
	t, err := scanTrack(p.db.QueryRowContext(ctx, `
		INSERT INTO tracks (title, artist, album, duration, bitrate, genre, album_art, file_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+trackCols,
		in.Title, in.Artist, in.Album, in.Duration, bitrate, in.Genre, in.AlbumArt, in.FilePath))
	if err != nil {
		return station.Track{}, pgErr("create track", err)
	}
	return t, nil
}

func (p *Postgres) SearchTracks(ctx context.Context, query string) ([]station.Track, error) {
	pattern := "%" + query + "%"
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+trackCols+` FROM tracks
		WHERE title ILIKE $1 OR artist ILIKE $1 OR album ILIKE $1
		ORDER BY id`, pattern)
	if err != nil {
		return nil, pgErr("search tracks", err)
	}
	defer rows.Close()

	out := []station.Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, pgErr("search scan", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("search rows", err)
	}
	return out, nil
}

func (p *Postgres) Queue(ctx context.Context) ([]station.QueueEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT q.id, q.track_id, q.position, q.requested_by, q.requested_at, q.is_playing,
		       t.id, t.title, t.artist, t.album, t.duration, t.bitrate, t.genre, t.album_art, t.file_path
		FROM queue_items q
		JOIN tracks t ON t.id = q.track_id
		ORDER BY q.position`)
	if err != nil {
		return nil, pgErr("queue", err)
	}
	defer rows.Close()

	out := []station.QueueEntry{}
	for rows.Next() {
		var e station.QueueEntry
		err := rows.Scan(&e.ID, &e.TrackID, &e.Position, &e.RequestedBy, &e.RequestedAt, &e.IsPlaying,
			&e.Track.ID, &e.Track.Title, &e.Track.Artist, &e.Track.Album, &e.Track.Duration,
			&e.Track.Bitrate, &e.Track.Genre, &e.Track.AlbumArt, &e.Track.FilePath)
		if err != nil {
			return nil, pgErr("queue scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("queue rows", err)
	}
	return out, nil
}

func (p *Postgres) AddToQueue(ctx context.Context, trackID int64, requestedBy *string) (station.QueueItem, error) {
	// Positions come from a sequence, so concurrent enqueues can never
	// collide and order stays strictly monotonic.
	var item station.QueueItem
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO queue_items (track_id, position, requested_by)
		VALUES ($1, nextval('queue_position_seq'), $2)
		RETURNING id, track_id, position, requested_by, requested_at, is_playing`,
		trackID, requestedBy).
		Scan(&item.ID, &item.TrackID, &item.Position, &item.RequestedBy, &item.RequestedAt, &item.IsPlaying)
	if err != nil {
		return station.QueueItem{}, pgErr("add to queue", err)
	}
	return item, nil
}

func (p *Postgres) RemoveFromQueue(ctx context.Context, id int64) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM queue_items WHERE id = $1", id); err != nil {
		return pgErr("remove from queue", err)
	}
	return nil
}

func (p *Postgres) ClearQueue(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM queue_items"); err != nil {
		return pgErr("clear queue", err)
	}
	return nil
}

func (p *Postgres) ChatMessages(ctx context.Context, limit int) ([]station.ChatMessage, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, username, message, ts, is_bot FROM chat_messages
		ORDER BY ts DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, pgErr("chat messages", err)
	}
	defer rows.Close()

	out := []station.ChatMessage{}
	for rows.Next() {
		var m station.ChatMessage
		if err := rows.Scan(&m.ID, &m.Username, &m.Message, &m.Timestamp, &m.IsBot); err != nil {
			return nil, pgErr("chat scan", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("chat rows", err)
	}
	return out, nil
}

func (p *Postgres) AddChatMessage(ctx context.Context, username, message string, isBot bool) (station.ChatMessage, error) {
	var m station.ChatMessage
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (username, message, is_bot)
		VALUES ($1, $2, $3)
		RETURNING id, username, message, ts, is_bot`,
		username, message, isBot).
		Scan(&m.ID, &m.Username, &m.Message, &m.Timestamp, &m.IsBot)
	if err != nil {
		return station.ChatMessage{}, pgErr("add chat message", err)
	}
	return m, nil
}

func (p *Postgres) Comments(ctx context.Context, limit int) ([]station.Comment, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, author, content, ts, likes FROM comments
		ORDER BY ts DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, pgErr("comments", err)
	}
	defer rows.Close()

	out := []station.Comment{}
	for rows.Next() {
		var c station.Comment
		if err := rows.Scan(&c.ID, &c.Author, &c.Content, &c.Timestamp, &c.Likes); err != nil {
			return nil, pgErr("comments scan", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("comments rows", err)
	}
	return out, nil
}

func (p *Postgres) AddComment(ctx context.Context, author, content string) (station.Comment, error) {
	var c station.Comment
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO comments (author, content) VALUES ($1, $2)
		RETURNING id, author, content, ts, likes`,
		author, content).
		Scan(&c.ID, &c.Author, &c.Content, &c.Timestamp, &c.Likes)
	if err != nil {
		return station.Comment{}, pgErr("add comment", err)
	}
	return c, nil
}

func (p *Postgres) LikeComment(ctx context.Context, id int64) error {
	// Single-statement increment, so concurrent likes never lose updates.
	if _, err := p.db.ExecContext(ctx,
		"UPDATE comments SET likes = likes + 1 WHERE id = $1", id); err != nil {
		return pgErr("like comment", err)
	}
	return nil
}

const radioStateCols = "id, is_playing, current_track_id, volume, listener_count, irc_connected, irc_channel, irc_user_count"

func scanRadioState(row interface{ Scan(...any) error }) (station.RadioState, error) {
	var s station.RadioState
	err := row.Scan(&s.ID, &s.IsPlaying, &s.CurrentTrackID, &s.Volume,
		&s.ListenerCount, &s.IRCConnected, &s.IRCChannel, &s.IRCUserCount)
	return s, err
}

// radioStateQ vivifies the singleton row and reads it inside q. ON CONFLICT
// DO NOTHING keeps racing first reads from creating duplicates.
func radioStateQ(ctx context.Context, q interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (station.RadioState, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO radio_state (id, is_playing, current_track_id, volume, listener_count, irc_connected, irc_channel, irc_user_count)
		VALUES (1, TRUE, NULL, 75, 1247, TRUE, '#neonwave-radio', 23)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return station.RadioState{}, err
	}
	return scanRadioState(q.QueryRowContext(ctx,
		"SELECT "+radioStateCols+" FROM radio_state WHERE id = 1"))
}

func (p *Postgres) RadioState(ctx context.Context) (station.RadioState, error) {
	s, err := radioStateQ(ctx, p.db)
	if err != nil {
		return station.RadioState{}, pgErr("radio state", err)
	}
	return s, nil
}

func (p *Postgres) UpdateRadioState(ctx context.Context, patch station.RadioStatePatch) (station.RadioState, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return station.RadioState{}, pgErr("radio state tx", err)
	}
	defer tx.Rollback()

	cur, err := radioStateQ(ctx, tx)
	if err != nil {
		return station.RadioState{}, pgErr("radio state read", err)
	}
	patch.Apply(&cur)

	_, err = tx.ExecContext(ctx, `
		UPDATE radio_state
		SET is_playing = $1, current_track_id = $2, volume = $3, listener_count = $4,
		    irc_connected = $5, irc_channel = $6, irc_user_count = $7
		WHERE id = 1`,
		cur.IsPlaying, cur.CurrentTrackID, cur.Volume, cur.ListenerCount,
		cur.IRCConnected, cur.IRCChannel, cur.IRCUserCount)
	if err != nil {
		return station.RadioState{}, pgErr("radio state update", err)
	}
	if err := tx.Commit(); err != nil {
		return station.RadioState{}, pgErr("radio state commit", err)
	}
	return cur, nil
}

const settingsCols = "id, station_name, tagline, icecast_server, max_bitrate, auto_play, allow_requests, max_requests_per_user, theme, updated_at"

func scanSettings(row interface{ Scan(...any) error }) (station.StationSettings, error) {
	var s station.StationSettings
	err := row.Scan(&s.ID, &s.StationName, &s.Tagline, &s.IcecastServer, &s.MaxBitrate,
		&s.AutoPlay, &s.AllowRequests, &s.MaxRequestsPerUser, &s.Theme, &s.UpdatedAt)
	return s, err
}

func settingsQ(ctx context.Context, q interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (station.StationSettings, error) {
	_, err := q.ExecContext(ctx,
		"INSERT INTO station_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return station.StationSettings{}, err
	}
	return scanSettings(q.QueryRowContext(ctx,
		"SELECT "+settingsCols+" FROM station_settings WHERE id = 1"))
}

func (p *Postgres) StationSettings(ctx context.Context) (station.StationSettings, error) {
	s, err := settingsQ(ctx, p.db)
	if err != nil {
		return station.StationSettings{}, pgErr("station settings", err)
	}
	return s, nil
}

func (p *Postgres) UpdateStationSettings(ctx context.Context, patch station.StationSettingsPatch) (station.StationSettings, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return station.StationSettings{}, pgErr("settings tx", err)
	}
	defer tx.Rollback()

	cur, err := settingsQ(ctx, tx)
	if err != nil {
		return station.StationSettings{}, pgErr("settings read", err)
	}
	patch.Apply(&cur)

	err = tx.QueryRowContext(ctx, `
		UPDATE station_settings
		SET station_name = $1, tagline = $2, icecast_server = $3, max_bitrate = $4,
		    auto_play = $5, allow_requests = $6, max_requests_per_user = $7, theme = $8,
		    updated_at = now()
		WHERE id = 1
		RETURNING `+settingsCols,
		cur.StationName, cur.Tagline, cur.IcecastServer, cur.MaxBitrate,
		cur.AutoPlay, cur.AllowRequests, cur.MaxRequestsPerUser, cur.Theme).
		Scan(&cur.ID, &cur.StationName, &cur.Tagline, &cur.IcecastServer, &cur.MaxBitrate,
			&cur.AutoPlay, &cur.AllowRequests, &cur.MaxRequestsPerUser, &cur.Theme, &cur.UpdatedAt)
	if err != nil {
		return station.StationSettings{}, pgErr("settings update", err)
	}
	if err := tx.Commit(); err != nil {
		return station.StationSettings{}, pgErr("settings commit", err)
	}
	return cur, nil
}

const userCols = "id, username, email, role, is_active, last_login, created_at"

func scanUser(row interface{ Scan(...any) error }) (station.User, error) {
	var u station.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.LastLogin, &u.CreatedAt)
	return u, err
}

func (p *Postgres) Users(ctx context.Context) ([]station.User, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, pgErr("users", err)
	}
	defer rows.Close()

	out := []station.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, pgErr("users scan", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("users rows", err)
	}
	return out, nil
}

func (p *Postgres) User(ctx context.Context, id int64) (station.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id = $1", id))
	if err != nil {
		return station.User{}, pgErr("user", err)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, in station.NewUser) (station.User, error) {
	role := in.Role
	if role == "" {
		role = "listener"
	}
	u, err := scanUser(p.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, role) VALUES ($1, $2, $3)
		RETURNING `+userCols,
		in.Username, in.Email, role))
	if err != nil {
		return station.User{}, pgErr("create user", err)
	}
	return u, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, id int64, patch station.UserPatch) (station.User, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return station.User{}, pgErr("user tx", err)
	}
	defer tx.Rollback()

	cur, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return station.User{}, pgErr("user read", err)
	}
	patch.Apply(&cur)

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, role = $3, is_active = $4, last_login = $5
		WHERE id = $6`,
		cur.Username, cur.Email, cur.Role, cur.IsActive, cur.LastLogin, id)
	if err != nil {
		return station.User{}, pgErr("user update", err)
	}
	if err := tx.Commit(); err != nil {
		return station.User{}, pgErr("user commit", err)
	}
	return cur, nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return pgErr("delete user", err)
	}
	return nil
}
