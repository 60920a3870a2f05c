package store

const (
	getRecord = `
		SELECT
			id,
			payload,
			created_at,
			updated_at,
			deleted
		FROM records
		WHERE tbl = $1 AND id = $2;`

	listRecords = `
		SELECT
			id,
			payload,
			created_at,
			updated_at,
			deleted
		FROM records
		WHERE tbl = $1 AND deleted = 0
		ORDER BY updated_at DESC;`

	upsertRecord = `
		INSERT INTO records (tbl, id, payload, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tbl, id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at,
			deleted    = excluded.deleted;`

	markRecordDeleted = `
		UPDATE records SET
			deleted    = 1,
			updated_at = $1
		WHERE tbl = $2 AND id = $3;`

	// The ON CONFLICT clause implements supersede: the latest payload
	// replaces the queued one, a delete replaces a queued upsert, and
	// the original seq (queue position) is preserved.
	upsertPendingChange = `
		INSERT INTO pending_changes (tbl, record_id, op, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tbl, record_id) DO UPDATE SET
			op         = excluded.op,
			payload    = excluded.payload,
			created_at = excluded.created_at;`

	listPendingChanges = `
		SELECT seq, tbl, record_id, op, payload, created_at
		FROM pending_changes
		ORDER BY seq ASC;`

	// The created_at guard makes removal conditional on the entry still
	// holding the drained snapshot: a supersede that lands while that
	// snapshot is in flight refreshes created_at, and the refreshed
	// entry must survive for the next cycle.
	removePendingChange = `
		DELETE FROM pending_changes WHERE seq = $1 AND created_at = $2;`

	countPendingChanges = `
		SELECT COUNT(*) FROM pending_changes;`

	clearPendingChanges = `
		DELETE FROM pending_changes;`

	getSyncMeta = `
		SELECT value FROM sync_meta WHERE key = $1;`

	setSyncMeta = `
		INSERT INTO sync_meta (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`

	deleteSyncMeta = `
		DELETE FROM sync_meta WHERE key = $1;`
)
