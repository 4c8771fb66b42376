/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ThumbKey identifies a cached thumbnail. SrcSize and SrcModTime come from
// the source file so a modified image produces a different key.
type ThumbKey struct {
	Src        string
	SrcSize    int64
	SrcModTime int64 // unix nanoseconds
	W, H       int
}

// KeyFor stats src and returns its key for a w x h thumbnail.
func KeyFor(src string, w, h int) (ThumbKey, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return ThumbKey{}, err
	}
	return ThumbKey{Src: src, SrcSize: fi.Size(), SrcModTime: fi.ModTime().UnixNano(), W: w, H: h}, nil
}

// Get returns the cached blob for key and updates its access time.
// A miss returns nil, nil.
func (c *Cache) Get(ctx context.Context, key ThumbKey) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT blob FROM thumbs WHERE src=? AND src_size=? AND src_mtime=? AND w=? AND h=?`,
		key.Src, key.SrcSize, key.SrcModTime, key.W, key.H).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query thumb: %w", err)
	}
	// touch
	_, _ = c.db.ExecContext(ctx, `UPDATE thumbs SET last_access=? WHERE src=? AND src_size=? AND src_mtime=? AND w=? AND h=?`,
		accessStamp(), key.Src, key.SrcSize, key.SrcModTime, key.W, key.H)
	return blob, nil
}

// Put upserts a thumbnail and evicts least recently used rows above the size cap.
func (c *Cache) Put(ctx context.Context, key ThumbKey, blob []byte) error {
	if len(blob) == 0 {
		return errors.New("empty thumbnail")
	}
	now := accessStamp()
	_, err := c.db.ExecContext(ctx, `INSERT INTO thumbs(src,src_size,src_mtime,w,h,blob,size,created_at,last_access)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(src,src_size,src_mtime,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, last_access=excluded.last_access`,
		key.Src, key.SrcSize, key.SrcModTime, key.W, key.H, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert thumb: %w", err)
	}
	if c.maxBytes > 0 {
		return c.EvictToFit(ctx, c.maxBytes)
	}
	return nil
}

// GetOrCreate returns the cached thumbnail or generates, stores and returns it.
func (c *Cache) GetOrCreate(ctx context.Context, key ThumbKey, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, key, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictToFit deletes least recently used rows until the total size is <= capBytes.
func (c *Cache) EvictToFit(ctx context.Context, capBytes int64) error {
	total, err := c.TotalBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, size FROM thumbs ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	victims := make([]any, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// close the cursor before writing; the pool has a single connection
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM thumbs WHERE id IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := c.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalBytes returns the summed size of all cached thumbnails.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM thumbs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum thumbs size: %w", err)
	}
	return total, nil
}

// Purge removes every cached thumbnail.
func (c *Cache) Purge(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM thumbs`)
	return err
}

// accessStamp has sub-second precision so LRU order holds for quick successive writes.
func accessStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
