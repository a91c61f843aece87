package store

// Schema is applied on startup. Statements are idempotent so a restart
// against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS queue_entries (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		user_name TEXT,
		user_phone TEXT,
		token_number TEXT NOT NULL UNIQUE,
		token_type TEXT NOT NULL DEFAULT 'REGULAR',
		status TEXT NOT NULL DEFAULT 'WAITING',
		priority TEXT NOT NULL DEFAULT 'NORMAL',
		position INTEGER NOT NULL,
		estimated_wait_time INTEGER NOT NULL DEFAULT 0,
		estimated_ready_time TIMESTAMP,
		actual_start_time TIMESTAMP,
		actual_ready_time TIMESTAMP,
		actual_completion_time TIMESTAMP,
		assigned_counter TEXT,
		assigned_staff TEXT,
		assigned_staff_name TEXT,
		average_item_preparation_time INTEGER,
		is_express_queue BOOLEAN NOT NULL DEFAULT FALSE,
		special_handling TEXT,
		notes TEXT,
		total_amount TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_entries_status ON queue_entries (status)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_entries_user ON queue_entries (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_entries_position ON queue_entries (position)`,

	`CREATE TABLE IF NOT EXISTS queue_position_history (
		id TEXT PRIMARY KEY,
		queue_entry_id TEXT NOT NULL,
		old_position INTEGER NOT NULL,
		new_position INTEGER NOT NULL,
		old_status TEXT NOT NULL,
		new_status TEXT NOT NULL,
		estimated_wait_time INTEGER,
		estimated_ready_time TIMESTAMP,
		reason TEXT,
		timestamp TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_position_history_entry ON queue_position_history (queue_entry_id)`,

	`CREATE TABLE IF NOT EXISTS staff_queue_actions_log (
		id TEXT PRIMARY KEY,
		queue_entry_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		staff_name TEXT,
		action TEXT NOT NULL,
		old_status TEXT,
		new_status TEXT,
		old_priority TEXT,
		new_priority TEXT,
		note TEXT,
		reason TEXT,
		timestamp TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_staff_actions_entry ON staff_queue_actions_log (queue_entry_id)`,

	`CREATE TABLE IF NOT EXISTS queue_configuration (
		id TEXT PRIMARY KEY,
		max_concurrent_orders INTEGER NOT NULL DEFAULT 10,
		avg_preparation_time_per_item INTEGER NOT NULL DEFAULT 5,
		buffer_time INTEGER NOT NULL DEFAULT 2,
		express_queue_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		express_queue_max_items INTEGER NOT NULL DEFAULT 3,
		max_wait_time_alert INTEGER NOT NULL DEFAULT 30,
		token_expiry_time INTEGER NOT NULL DEFAULT 60,
		auto_notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_position_threshold INTEGER NOT NULL DEFAULT 5,
		notification_almost_ready_threshold INTEGER NOT NULL DEFAULT 2,
		updated_at TIMESTAMP NOT NULL,
		updated_by TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS queue_priority_multipliers (
		id TEXT PRIMARY KEY,
		priority TEXT NOT NULL UNIQUE,
		multiplier REAL NOT NULL DEFAULT 1.0
	)`,

	`CREATE TABLE IF NOT EXISTS queue_statistics (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		total_in_queue INTEGER NOT NULL DEFAULT 0,
		waiting_count INTEGER NOT NULL DEFAULT 0,
		in_progress_count INTEGER NOT NULL DEFAULT 0,
		ready_count INTEGER NOT NULL DEFAULT 0,
		completed_today INTEGER NOT NULL DEFAULT 0,
		cancelled_today INTEGER NOT NULL DEFAULT 0,
		no_show_today INTEGER NOT NULL DEFAULT 0,
		expired_today INTEGER NOT NULL DEFAULT 0,
		avg_wait_time INTEGER NOT NULL DEFAULT 0,
		avg_preparation_time INTEGER NOT NULL DEFAULT 0,
		longest_wait_time INTEGER NOT NULL DEFAULT 0,
		shortest_wait_time INTEGER NOT NULL DEFAULT 0,
		current_load REAL NOT NULL DEFAULT 0,
		peak_load REAL NOT NULL DEFAULT 0,
		peak_load_time TEXT,
		on_time_completion_rate REAL NOT NULL DEFAULT 0,
		no_show_rate REAL NOT NULL DEFAULT 0,
		revenue TEXT NOT NULL DEFAULT '0',
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS queue_hourly_statistics (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		hour INTEGER NOT NULL,
		order_count INTEGER NOT NULL DEFAULT 0,
		avg_wait_time INTEGER NOT NULL DEFAULT 0,
		avg_preparation_time INTEGER NOT NULL DEFAULT 0,
		completed_count INTEGER NOT NULL DEFAULT 0,
		cancelled_count INTEGER NOT NULL DEFAULT 0,
		peak_position INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (date, hour)
	)`,

	`CREATE TABLE IF NOT EXISTS queue_token_counter (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		current_number INTEGER NOT NULL DEFAULT 0,
		prefix TEXT NOT NULL DEFAULT 'A',
		last_reset_at TIMESTAMP NOT NULL
	)`,
}
