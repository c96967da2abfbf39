package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/inbox-agent/internal/domain"
)

func TestUpsertMessage_MergesProcessingStamps(t *testing.T) {
	s, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	m := domain.NewMessage()
	m.ExternalID = "ext-1"
	m.Sender = domain.Address{Address: "a@b.com"}
	m.SentAt, m.ReceivedAt = time.Now(), time.Now()
	m.Stamp(domain.StampAnalyzed)

	mock.ExpectQuery("SELECT processing_stamps FROM messages WHERE external_id").
		WithArgs("ext-1").
		WillReturnRows(sqlmock.NewRows([]string{"processing_stamps"}).AddRow([]byte(`["rulesApplied"]`)))

	mock.ExpectQuery("INSERT INTO messages").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("msg-1"))

	id, err := s.UpsertMessage(context.Background(), &m)
	if err != nil {
		t.Fatalf("UpsertMessage: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("expected returned id msg-1, got %s", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	s, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.|\n)* FROM messages WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetMessage(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for a missing message")
	}
}
