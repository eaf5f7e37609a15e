package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/worklane/worklane-backend/internal/database"
)

func newConversationMock(t *testing.T) (sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	prev := database.PostgresDB
	database.PostgresDB = db
	return mock, func() {
		database.PostgresDB = prev
		db.Close()
	}
}

func expectNotBlocked(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

// The loser of a concurrent first-contact race hits the unique pair index on
// insert; it must re-query and come back with the winner's row, not an error.
func TestGetOrCreateConversation_LostRaceReturnsWinner(t *testing.T) {
	mock, restore := newConversationMock(t)
	defer restore()

	userA := uuid.New()
	userB := uuid.New()
	winnerID := uuid.New()
	now := time.Now().UTC()

	expectNotBlocked(mock)
	mock.ExpectQuery("FROM conversations").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO conversations").
		WillReturnError(&pq.Error{Code: "23505"})
	// The winner inserted with participants in the opposite order.
	mock.ExpectQuery("FROM conversations").WillReturnRows(
		sqlmock.NewRows([]string{"id", "created_at", "last_message_at", "participant_1", "participant_2"}).
			AddRow(winnerID.String(), now, now, userB.String(), userA.String()),
	)

	conv, created, err := GetOrCreateConversation(context.Background(), userA, userB)
	if err != nil {
		t.Fatalf("GetOrCreateConversation() error = %v", err)
	}
	if created {
		t.Error("created = true, want false for the race loser")
	}
	if conv.ID != winnerID {
		t.Errorf("conversation ID = %v, want the winner's %v", conv.ID, winnerID)
	}
	if conv.Participant1 != userB || conv.Participant2 != userA {
		t.Errorf("participants = %v/%v, want the winner's row order %v/%v",
			conv.Participant1, conv.Participant2, userB, userA)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// When the recovery re-query also misses, the failure surfaces as
// ErrConversationCreate rather than a silent nil conversation.
func TestGetOrCreateConversation_LostRaceLookupMiss(t *testing.T) {
	mock, restore := newConversationMock(t)
	defer restore()

	expectNotBlocked(mock)
	mock.ExpectQuery("FROM conversations").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO conversations").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("FROM conversations").WillReturnError(sql.ErrNoRows)

	conv, _, err := GetOrCreateConversation(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrConversationCreate) {
		t.Errorf("error = %v, want ErrConversationCreate", err)
	}
	if conv != nil {
		t.Errorf("conversation = %v, want nil on recovery failure", conv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Non-uniqueness insert failures must not trigger the recovery re-query.
func TestGetOrCreateConversation_InsertFailure(t *testing.T) {
	mock, restore := newConversationMock(t)
	defer restore()

	expectNotBlocked(mock)
	mock.ExpectQuery("FROM conversations").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO conversations").
		WillReturnError(&pq.Error{Code: "53300"}) // too_many_connections

	_, _, err := GetOrCreateConversation(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrConversationCreate) {
		t.Errorf("error = %v, want ErrConversationCreate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetOrCreateConversation_BlockedPair(t *testing.T) {
	mock, restore := newConversationMock(t)
	defer restore()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, _, err := GetOrCreateConversation(context.Background(), uuid.New(), uuid.New())
	if err != ErrBlockedPair {
		t.Errorf("error = %v, want ErrBlockedPair", err)
	}
}
