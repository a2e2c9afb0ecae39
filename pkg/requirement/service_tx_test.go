package requirement

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reqman/reqman/pkg/audit"
	"github.com/reqman/reqman/pkg/workflow"
)

// newMockService creates a Service over a sqlmock-backed connection so that
// individual statements can be forced to fail mid-transaction.
func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	svc := NewService(db, workflow.NewMachine(), audit.NewStore(db), audit.NewRecorder(), nil)
	return svc, mock
}

func TestService_Create_RollsBackOnInsertFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	// Code sequence lookup finds no prior requirement.
	mock.ExpectQuery(`SELECT \* FROM "requirements" WHERE code LIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))
	mock.ExpectQuery(`INSERT INTO "requirements"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:       "Login page",
		Description: "d",
	}, 1)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"a failed insert must roll the whole transaction back")
}

func TestService_ChangeStatus_RollsBackOnUpdateFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requirements" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "status"}).
			AddRow(1, "REQ-202603-0001", "draft"))
	mock.ExpectExec(`UPDATE "requirements" SET`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 1, workflow.StatusSubmitted, 1, "")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"the status write and its history record must commit or fail together")
}

func TestService_ChangeStatus_RollsBackOnHistoryFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requirements" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "status"}).
			AddRow(1, "REQ-202603-0001", "draft"))
	mock.ExpectExec(`UPDATE "requirements" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "requirement_history"`).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 1, workflow.StatusSubmitted, 1, "")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"a failed history append must undo the status write")
}

func TestService_ChangeStatus_IllegalTransitionRollsBack(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requirements" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "status"}).
			AddRow(1, "REQ-202603-0001", "draft"))
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 1, workflow.StatusTesting, 1, "")
	var te *workflow.TransitionError
	require.ErrorAs(t, err, &te)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"a denied transition must issue no writes at all")
}
