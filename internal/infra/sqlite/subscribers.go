package sqlite

import "time"

// Subscribe adds a chat to the notification subscriber set.
// Re-subscribing is a no-op.
func (d *DB) Subscribe(chatID int64) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO subscribers (chat_id, subscribed_at) VALUES (?, ?)`,
		chatID, time.Now().Unix())
	return err
}

// Unsubscribe removes a chat from the subscriber set. Removing an
// absent chat is a no-op.
func (d *DB) Unsubscribe(chatID int64) error {
	_, err := d.db.Exec(`DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	return err
}

// Subscribers returns all subscribed chat ids. Order is not
// meaningful to callers.
func (d *DB) Subscribers() ([]int64, error) {
	rows, err := d.db.Query(`SELECT chat_id FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
