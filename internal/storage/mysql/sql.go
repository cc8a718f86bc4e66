package mysql

const createRecordsSQL = `
CREATE TABLE IF NOT EXISTS saved_records (
  name       VARCHAR(191) NOT NULL PRIMARY KEY,
  body       JSON         NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const upsertRecordSQL = `
INSERT INTO saved_records (name, body)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  body       = VALUES(body),
  updated_at = CURRENT_TIMESTAMP
`

const getRecordSQL = `SELECT body FROM saved_records WHERE name = ?`
