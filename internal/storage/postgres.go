package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"call-pipeline/internal/calls"
	"call-pipeline/pkg/logger"
)

// NOTE: This repository assumes the following tables exist:
//
//	partners  (id TEXT PRIMARY KEY, phone TEXT UNIQUE)
//	call_logs (call_sid TEXT PRIMARY KEY, partner_id TEXT NULL,
//	           customer_number TEXT, call_direction TEXT, duration INT,
//	           recording_url TEXT NULL, transcription TEXT NULL,
//	           chargeable BOOL, call_status TEXT, voicemail BOOL,
//	           voicemail_transcription TEXT NULL, missed_by TEXT NULL,
//	           created_at TIMESTAMPTZ DEFAULT now(),
//	           updated_at TIMESTAMPTZ DEFAULT now())

const defaultPartnerCacheTTL = 10 * time.Minute

// PostgresRepo persists call outcomes in Postgres. Partner lookups go
// through an optional Redis read-through cache; cache failures are logged
// and ignored, the database stays authoritative.
type PostgresRepo struct {
	DB    *sql.DB
	Cache *redis.Client

	// PartnerCacheTTL bounds staleness of the phone -> partner id mapping.
	PartnerCacheTTL time.Duration
}

func NewPostgresRepo(db *sql.DB, cache *redis.Client) *PostgresRepo {
	return &PostgresRepo{DB: db, Cache: cache, PartnerCacheTTL: defaultPartnerCacheTTL}
}

func partnerCacheKey(phone string) string { return "partner:phone:" + phone }

func (r *PostgresRepo) FindPartnerID(ctx context.Context, phone string) (string, error) {
	if phone == "" {
		return "", ErrNotFound
	}

	if r.Cache != nil {
		id, err := r.Cache.Get(ctx, partnerCacheKey(phone)).Result()
		if err == nil && id != "" {
			return id, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.From(ctx).Warn("partner cache read failed", "err", err)
		}
	}

	const q = `SELECT id FROM partners WHERE phone = $1`
	var id string
	if err := r.DB.QueryRowContext(ctx, q, phone).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("partner lookup: %w", err)
	}

	if r.Cache != nil {
		ttl := r.PartnerCacheTTL
		if ttl <= 0 {
			ttl = defaultPartnerCacheTTL
		}
		if err := r.Cache.Set(ctx, partnerCacheKey(phone), id, ttl).Err(); err != nil {
			logger.From(ctx).Warn("partner cache write failed", "err", err)
		}
	}
	return id, nil
}

func (r *PostgresRepo) UpsertCallLog(ctx context.Context, out calls.CallOutcome) error {
	const q = `
INSERT INTO call_logs (
	call_sid, partner_id, customer_number, call_direction, duration,
	recording_url, transcription, chargeable, call_status,
	voicemail, voicemail_transcription, missed_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (call_sid) DO UPDATE SET
	partner_id = EXCLUDED.partner_id,
	customer_number = EXCLUDED.customer_number,
	call_direction = EXCLUDED.call_direction,
	duration = EXCLUDED.duration,
	recording_url = EXCLUDED.recording_url,
	transcription = EXCLUDED.transcription,
	chargeable = EXCLUDED.chargeable,
	call_status = EXCLUDED.call_status,
	voicemail = EXCLUDED.voicemail,
	voicemail_transcription = EXCLUDED.voicemail_transcription,
	missed_by = EXCLUDED.missed_by,
	updated_at = now()
`
	_, err := r.DB.ExecContext(ctx, q,
		out.CallSID,
		nullString(out.PartnerID),
		out.CustomerNumber,
		string(out.Direction),
		out.DurationSeconds,
		nullString(out.RecordingURL),
		nullString(out.Transcript),
		out.Chargeable,
		string(out.FinalStatus),
		out.Voicemail,
		nullString(out.VoicemailTranscript),
		nullString(string(out.MissedBy)),
	)
	if err != nil {
		return fmt.Errorf("call_logs upsert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetCallLog(ctx context.Context, callSID string) (StoredCall, error) {
	const q = `
SELECT call_sid, partner_id, customer_number, call_direction, duration,
       recording_url, transcription, chargeable, call_status,
       voicemail, voicemail_transcription, missed_by, created_at, updated_at
FROM call_logs
WHERE call_sid = $1
`
	var (
		row                                                       StoredCall
		partnerID, recordingURL, transcript, vmTranscript, missed sql.NullString
		direction, status                                         string
	)
	if err := r.DB.QueryRowContext(ctx, q, callSID).Scan(
		&row.CallSID,
		&partnerID,
		&row.CustomerNumber,
		&direction,
		&row.DurationSeconds,
		&recordingURL,
		&transcript,
		&row.Chargeable,
		&status,
		&row.Voicemail,
		&vmTranscript,
		&missed,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredCall{}, ErrNotFound
		}
		return StoredCall{}, fmt.Errorf("call_logs lookup: %w", err)
	}

	row.PartnerID = partnerID.String
	row.RecordingURL = recordingURL.String
	row.Transcript = transcript.String
	row.VoicemailTranscript = vmTranscript.String
	row.MissedBy = calls.MissedBy(missed.String)
	row.Direction = calls.Direction(direction)
	row.FinalStatus = calls.FinalStatus(status)
	return row, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
