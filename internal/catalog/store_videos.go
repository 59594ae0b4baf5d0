package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kinetic/internal/services"
)

const videoColumns = "id, title, description, skill_category, video_cid, thumbnail_cid, owner_address, is_verified_human, token_id, mint_tx_hash, ip_asset_id, ip_tx_hash, license_type, license_terms_json, created_at, updated_at"

// CreateVideo publishes a new video record. The owner account is created
// when absent so a first upload never fails on a missing account row.
func (s *Store) CreateVideo(ctx context.Context, params NewVideo) (*Video, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create video", "title required", nil)
	}
	if !IsSkillCategory(params.SkillCategory) {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create video",
			fmt.Sprintf("unknown skill category %q", params.SkillCategory), nil)
	}
	if strings.TrimSpace(params.VideoCID) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create video", "video content id required", nil)
	}
	owner := NormalizeAddress(params.OwnerAddress)
	if owner == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create video", "owner address required", nil)
	}

	if err := s.EnsureAccount(ctx, owner, params.IsVerifiedHuman); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (
            id, title, description, skill_category, video_cid, thumbnail_cid,
            owner_address, is_verified_human, token_id, mint_tx_hash,
            ip_asset_id, ip_tx_hash, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		strings.TrimSpace(params.Description),
		params.SkillCategory,
		strings.TrimSpace(params.VideoCID),
		nullableString(strings.TrimSpace(params.ThumbnailCID)),
		owner,
		boolToInt(params.IsVerifiedHuman),
		nullableInt64(params.TokenID),
		nullableString(params.MintTxHash),
		nullableString(params.IPAssetID),
		nullableString(params.IPTxHash),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	return s.GetVideo(ctx, id)
}

// GetVideo fetches a single video by id.
func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE id = ?", id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get video", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// ListVideos returns records matching the filter, newest first. The
// CategoryAll sentinel skips category filtering; search matches a
// case-insensitive substring of title or description.
func (s *Store) ListVideos(ctx context.Context, filter Filter) ([]*Video, error) {
	query := "SELECT " + videoColumns + " FROM videos"
	var (
		clauses []string
		args    []any
	)

	category := strings.TrimSpace(filter.Category)
	if category != "" && category != CategoryAll {
		clauses = append(clauses, "skill_category = ?")
		args = append(args, category)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		clauses = append(clauses, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		needle := "%" + search + "%"
		args = append(args, needle, needle)
	}
	if owner := NormalizeAddress(filter.Owner); owner != "" {
		clauses = append(clauses, "owner_address = ?")
		args = append(args, owner)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// UpdateVideo mutates the allow-listed fields of a record after the caller
// passes the ownership check. Owner address, content identifiers, and the
// primary key are never mutable through this path.
func (s *Store) UpdateVideo(ctx context.Context, id, callerAddress string, update VideoUpdate) (*Video, error) {
	existing, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsVideo(existing, callerAddress) {
		return nil, services.Wrap(services.ErrUnauthorized, "catalog", "update video",
			"you can only update your own videos", nil)
	}
	if update.IsZero() {
		return existing, nil
	}

	var (
		sets []string
		args []any
	)
	appendSet := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, services.Wrap(services.ErrValidation, "catalog", "update video", "title cannot be empty", nil)
		}
		appendSet("title", title)
	}
	if update.Description != nil {
		appendSet("description", strings.TrimSpace(*update.Description))
	}
	if update.SkillCategory != nil {
		if !IsSkillCategory(*update.SkillCategory) {
			return nil, services.Wrap(services.ErrValidation, "catalog", "update video",
				fmt.Sprintf("unknown skill category %q", *update.SkillCategory), nil)
		}
		appendSet("skill_category", *update.SkillCategory)
	}
	if update.LicenseType != nil {
		appendSet("license_type", nullableString(*update.LicenseType))
	}
	if update.LicenseTermsJSON != nil {
		appendSet("license_terms_json", nullableString(*update.LicenseTermsJSON))
	}
	if update.IPAssetID != nil {
		appendSet("ip_asset_id", nullableString(*update.IPAssetID))
	}
	if update.IPTxHash != nil {
		appendSet("ip_tx_hash", nullableString(*update.IPTxHash))
	}
	if update.MintTxHash != nil {
		appendSet("mint_tx_hash", nullableString(*update.MintTxHash))
	}
	if update.TokenID != nil {
		appendSet("token_id", *update.TokenID)
	}
	appendSet("updated_at", time.Now().UTC().Format(time.RFC3339Nano))

	args = append(args, id)
	if _, err := s.db.ExecContext(ctx,
		"UPDATE videos SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	return s.GetVideo(ctx, id)
}

// DeleteVideo removes a record after the ownership check and returns the
// deleted row so callers can release associated pinned content.
func (s *Store) DeleteVideo(ctx context.Context, id, callerAddress string) (*Video, error) {
	existing, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsVideo(existing, callerAddress) {
		return nil, services.Wrap(services.ErrUnauthorized, "catalog", "delete video",
			"you can only delete your own videos", nil)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("delete video: %w", err)
	}
	return existing, nil
}

// Stats returns the number of videos per skill category.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT skill_category, COUNT(1) FROM videos GROUP BY skill_category")
	if err != nil {
		return nil, fmt.Errorf("video stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("video stats: %w", err)
	}
	return stats, nil
}

// ownsVideo is the single authorization predicate for record mutation.
// Ownership is case-insensitive equality between the stored owner address
// and the caller-supplied address; there is no cryptographic proof that the
// caller controls the address. A signature-based upgrade would replace this
// one function.
func ownsVideo(video *Video, callerAddress string) bool {
	return video != nil && video.OwnerAddress == NormalizeAddress(callerAddress)
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		id            string
		title         string
		description   sql.NullString
		skillCategory string
		videoCID      string
		thumbnailCID  sql.NullString
		ownerAddress  string
		verified      sql.NullInt64
		tokenID       sql.NullInt64
		mintTxHash    sql.NullString
		ipAssetID     sql.NullString
		ipTxHash      sql.NullString
		licenseType   sql.NullString
		licenseTerms  sql.NullString
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&id,
		&title,
		&description,
		&skillCategory,
		&videoCID,
		&thumbnailCID,
		&ownerAddress,
		&verified,
		&tokenID,
		&mintTxHash,
		&ipAssetID,
		&ipTxHash,
		&licenseType,
		&licenseTerms,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		ID:               id,
		Title:            title,
		Description:      description.String,
		SkillCategory:    skillCategory,
		VideoCID:         videoCID,
		ThumbnailCID:     thumbnailCID.String,
		OwnerAddress:     ownerAddress,
		IsVerifiedHuman:  verified.Int64 != 0,
		MintTxHash:       mintTxHash.String,
		IPAssetID:        ipAssetID.String,
		IPTxHash:         ipTxHash.String,
		LicenseType:      licenseType.String,
		LicenseTermsJSON: licenseTerms.String,
		CreatedAt:        parseTimestamp(createdRaw),
		UpdatedAt:        parseTimestamp(updatedRaw),
	}
	if tokenID.Valid {
		value := tokenID.Int64
		video.TokenID = &value
	}
	return video, nil
}
