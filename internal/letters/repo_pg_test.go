package letters

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"coverletter-backend/coverletter/model"
)

var letterColumns = []string{"id", "user_id", "name", "job_title", "company_name", "job_description", "content", "created_at", "updated_at"}

type jsonArg struct{ want model.LetterContent }

func (a jsonArg) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var got model.LetterContent
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return got == a.want
}

func TestPGCreateEncodesContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	letter := Letter{
		ID:        "11111111-1111-1111-1111-111111111111",
		UserID:    "u1",
		Name:      "Acme",
		Content:   model.LetterContent{Body: "Hello", Closing: "Best,"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO letters`)).
		WithArgs(letter.ID, "u1", "Acme", "", "", "", jsonArg{want: letter.Content}, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), letter); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetDecodesContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`)).
		WithArgs("l1", "u1").
		WillReturnRows(sqlmock.NewRows(letterColumns).
			AddRow("l1", "u1", "Acme", "Engineer", "Acme", "", []byte(`{"header":{"fullName":"Robin Park"},"body":"Hello"}`), now, now))

	repo := &PGRepo{DB: db}
	letter, err := repo.Get(context.Background(), "u1", "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if letter.Content.Header.FullName != "Robin Park" || letter.Content.Body != "Hello" || letter.JobTitle != "Engineer" {
		t.Fatalf("unexpected letter %+v", letter)
	}
}

func TestPGDeleteMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE letters SET deleted_at = now()`)).
		WithArgs("l1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "u1", "l1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGListOrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id DESC`)).
		WithArgs("u1", 20, 0).
		WillReturnRows(sqlmock.NewRows(letterColumns).
			AddRow("l2", "u1", "B", "", "", "", []byte(`{}`), now, now).
			AddRow("l1", "u1", "A", "", "", "", []byte(`{}`), now.Add(-time.Hour), now))

	repo := &PGRepo{DB: db}
	got, err := repo.ListByUser(context.Background(), "u1", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "l2" {
		t.Fatalf("unexpected list %+v", got)
	}
}
