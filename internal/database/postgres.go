package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table (public marketplace profiles)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			username VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'freelancer',
			bio TEXT,
			skills TEXT[] NOT NULL DEFAULT '{}',
			avatar_url TEXT,
			cv_url TEXT,
			is_secure BOOLEAN NOT NULL DEFAULT FALSE,
			is_suspicious BOOLEAN NOT NULL DEFAULT FALSE,
			fast_responder BOOLEAN NOT NULL DEFAULT FALSE,
			is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Admins table
		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Blocks table. Stored directionally; lookups must check both orientations.
		`CREATE TABLE IF NOT EXISTS blocks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			blocker_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			blocked_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(blocker_id, blocked_id)
		)`,

		// Conversations table. The expression index below guarantees at most one
		// row per unordered participant pair even under a concurrent create race.
		`CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			last_message_at TIMESTAMP NOT NULL DEFAULT NOW(),
			participant_1 UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			participant_2 UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			CHECK (participant_1 <> participant_2)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_pair
			ON conversations (LEAST(participant_1, participant_2), GREATEST(participant_1, participant_2))`,

		// Notifications table
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(50) NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			link TEXT,
			read BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		// Jobs table (moderated: pending/approved/rejected)
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			employer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			budget INTEGER NOT NULL DEFAULT 0,
			tags TEXT[] NOT NULL DEFAULT '{}',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			is_open BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Job applications table
		`CREATE TABLE IF NOT EXISTS job_applications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			applicant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			cover_letter TEXT NOT NULL DEFAULT '',
			UNIQUE(job_id, applicant_id)
		)`,

		// Profile comments table (moderated)
		`CREATE TABLE IF NOT EXISTS profile_comments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			profile_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
		)`,

		// Reports table (moderated: approved = action taken, rejected = dismissed)
		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			reporter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reported_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reason VARCHAR(100) NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			resolved_by UUID REFERENCES admins(id) ON DELETE SET NULL
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_username ON admins(username)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_email ON admins(email)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_blocker_id ON blocks(blocker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_blocked_id ON blocks(blocked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_participant_1 ON conversations(participant_1)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_participant_2 ON conversations(participant_2)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_message_at ON conversations(last_message_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, read)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_employer_id ON jobs(employer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_job_applications_job_id ON job_applications(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_job_applications_applicant_id ON job_applications(applicant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_profile_comments_profile_user_id ON profile_comments(profile_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_profile_comments_status ON profile_comments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_reported_user_id ON reports(reported_user_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
