package store

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username VARCHAR(100) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		full_name VARCHAR(255),
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		mime_type VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL,
		content TEXT,
		sensitive_info TEXT,
		risk_score NUMERIC(10),
		status TEXT,
		uploaded_at TIMESTAMP(6) NOT NULL DEFAULT NOW(),
		last_modified_at TIMESTAMP(6) NOT NULL DEFAULT NOW(),
		owner_user_id BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents_risk (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		risk_type TEXT,
		risk_key TEXT,
		content TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_owner_uploaded ON documents (owner_user_id, uploaded_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_risk_document ON documents_risk (document_id)`,
}
