package repository

// Every table hangs off users; deleting a user removes its credential,
// websites, connections and event logs. UserRepository.Delete performs the
// same cascade explicitly for connections where FK enforcement is off.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		name          VARCHAR(100) NOT NULL,
		registered_at DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_auth (
		user_id       BIGINT       NOT NULL PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		CONSTRAINT fk_user_auth_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS websites (
		id         BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT        NOT NULL,
		url        VARCHAR(2048) NOT NULL,
		name       VARCHAR(100)  NOT NULL,
		created_at DATETIME(6)   NOT NULL,
		KEY idx_websites_user (user_id),
		CONSTRAINT fk_websites_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS connections (
		id                     BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
		website_id             BIGINT      NOT NULL,
		platform               VARCHAR(50) NOT NULL,
		platform_identifiers   JSON        NOT NULL,
		encrypted_access_token TEXT        NULL,
		is_active              BOOLEAN     NOT NULL DEFAULT TRUE,
		created_at             DATETIME(6) NOT NULL,
		KEY idx_connections_website (website_id),
		CONSTRAINT fk_connections_website FOREIGN KEY (website_id) REFERENCES websites (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS event_logs (
		id               BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		website_id       BIGINT        NOT NULL,
		received_at      DATETIME(6)   NOT NULL,
		event_id         VARCHAR(100)  NULL,
		event_name       VARCHAR(100)  NOT NULL,
		event_time       DATETIME(6)   NOT NULL,
		event_source_url VARCHAR(2048) NULL,
		user_ip_address  VARCHAR(64)   NULL,
		user_agent       VARCHAR(512)  NULL,
		fbp              VARCHAR(100)  NULL,
		fbc              VARCHAR(255)  NULL,
		email            VARCHAR(255)  NULL,
		phone            VARCHAR(100)  NULL,
		value            DECIMAL(18,4) NULL,
		currency         VARCHAR(10)   NULL,
		KEY idx_event_logs_website_received (website_id, received_at),
		KEY idx_event_logs_website_event_id (website_id, event_id, received_at),
		KEY idx_event_logs_website_name (website_id, event_name, received_at),
		CONSTRAINT fk_event_logs_website FOREIGN KEY (website_id) REFERENCES websites (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS waitlist (
		id           BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email        VARCHAR(255)  NOT NULL,
		source       VARCHAR(100)  NULL,
		utm_source   VARCHAR(100)  NULL,
		utm_medium   VARCHAR(100)  NULL,
		utm_campaign VARCHAR(100)  NULL,
		referer      VARCHAR(2048) NULL,
		user_agent   VARCHAR(512)  NULL,
		ip_address   VARCHAR(64)   NULL,
		created_at   DATETIME(6)   NOT NULL,
		UNIQUE KEY uq_waitlist_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER  PRIMARY KEY AUTOINCREMENT,
		email         TEXT     NOT NULL UNIQUE,
		name          TEXT     NOT NULL,
		registered_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_auth (
		user_id       INTEGER PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
		password_hash TEXT    NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS websites (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		url        TEXT     NOT NULL,
		name       TEXT     NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_websites_user ON websites (user_id)`,

	`CREATE TABLE IF NOT EXISTS connections (
		id                     INTEGER  PRIMARY KEY AUTOINCREMENT,
		website_id             INTEGER  NOT NULL REFERENCES websites (id) ON DELETE CASCADE,
		platform               TEXT     NOT NULL,
		platform_identifiers   TEXT     NOT NULL,
		encrypted_access_token TEXT     NULL,
		is_active              BOOLEAN  NOT NULL DEFAULT 1,
		created_at             DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_connections_website ON connections (website_id)`,

	`CREATE TABLE IF NOT EXISTS event_logs (
		id               INTEGER  PRIMARY KEY AUTOINCREMENT,
		website_id       INTEGER  NOT NULL REFERENCES websites (id) ON DELETE CASCADE,
		received_at      DATETIME NOT NULL,
		event_id         TEXT     NULL,
		event_name       TEXT     NOT NULL,
		event_time       DATETIME NOT NULL,
		event_source_url TEXT     NULL,
		user_ip_address  TEXT     NULL,
		user_agent       TEXT     NULL,
		fbp              TEXT     NULL,
		fbc              TEXT     NULL,
		email            TEXT     NULL,
		phone            TEXT     NULL,
		value            DECIMAL(18,4) NULL,
		currency         TEXT     NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_logs_website_received ON event_logs (website_id, received_at)`,
	`CREATE INDEX IF NOT EXISTS idx_event_logs_website_event_id ON event_logs (website_id, event_id, received_at)`,
	`CREATE INDEX IF NOT EXISTS idx_event_logs_website_name ON event_logs (website_id, event_name, received_at)`,

	`CREATE TABLE IF NOT EXISTS waitlist (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		email        TEXT     NOT NULL UNIQUE,
		source       TEXT     NULL,
		utm_source   TEXT     NULL,
		utm_medium   TEXT     NULL,
		utm_campaign TEXT     NULL,
		referer      TEXT     NULL,
		user_agent   TEXT     NULL,
		ip_address   TEXT     NULL,
		created_at   DATETIME NOT NULL
	)`,
}
