package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/repository/postgres"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/security"
	"github.com/api-sage/payment-reversal-engine/src/internal/config"
	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "reversals",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	db, err := postgres.Open(ctx, fmt.Sprintf("postgres://testuser:testpass@%s:%s/reversals?sslmode=disable", host, port.Port()), config.DatabasePoolConfig{
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := postgres.RunMigrations(ctx, db, filepath.Join("..", "..", "..", "..", "migrations")); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func seedTransaction(t *testing.T, db *sql.DB, status domain.TransactionStatus) (entityID, key int64) {
	t.Helper()
	ctx := context.Background()
	if err := db.QueryRowContext(ctx, `
INSERT INTO entity_accounts (institution_name, routing_number, settlement_account_type, settlement_account_number)
VALUES ('Fairview CU', '021000021', 'C', 'enc') RETURNING id`).Scan(&entityID); err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	if err := db.QueryRowContext(ctx, `
INSERT INTO transactions (tracking_number, external_tracking_number, entity_id, kind, payment_type, status, amount)
VALUES ('A123456789012', 'A123456789012', $1, 'CARD', 'CREDIT_CARD', $2, 125.50) RETURNING key`, entityID, string(status)).Scan(&key); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO split_payments (transaction_key, tracking_number, apply_to_account_number, amount, party_member_id)
VALUES ($1, 'A123456789012', 'enc', 125.50, 'M-1')`, key); err != nil {
		t.Fatalf("seed split payment: %v", err)
	}
	return entityID, key
}

func TestTransactionRepository_VersionCheck(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	_, key := seedTransaction(t, db, domain.StatusPending)
	repo := postgres.NewTransactionRepository(db)

	tx, err := repo.GetByKey(ctx, key)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("125.50")) {
		t.Fatalf("unexpected amount %s", tx.Amount)
	}

	ok, err := repo.UpdateStatus(ctx, domain.StatusUpdate{Key: key, Status: domain.StatusApproved, Actor: "jdoe", ExpectedVersion: tx.Version})
	if err != nil || !ok {
		t.Fatalf("expected first update to apply, ok=%v err=%v", ok, err)
	}

	ok, err = repo.UpdateStatus(ctx, domain.StatusUpdate{Key: key, Status: domain.StatusFunded, Actor: "jdoe", ExpectedVersion: tx.Version})
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("expected stale version to be rejected")
	}

	if _, err := repo.GetByTrackingNumber(ctx, "V000000000000"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	_, key := seedTransaction(t, db, domain.StatusPending)
	repo := postgres.NewTransactionRepository(db)
	auditLog := postgres.NewAuditLogRepository(db)
	manager := postgres.NewTransactionManager(db)

	boom := errors.New("boom")
	err := manager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.UpdateSplitPaymentTrackingNumbers(ctx, key, "V987654321098"); err != nil {
			return err
		}
		if err := auditLog.Append(ctx, domain.NewTransactionLog(key, "jdoe", domain.ActionUpdated, "Status updated from Pending to Approved.")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	splits, err := repo.SplitPayments(ctx, key)
	if err != nil {
		t.Fatalf("split payments: %v", err)
	}
	if len(splits) != 1 || splits[0].TrackingNumber != "A123456789012" {
		t.Fatalf("expected split payment to be unchanged, got %+v", splits)
	}

	entries, err := auditLog.Entries(ctx, domain.AuditSubjectTransaction, key)
	if err != nil {
		t.Fatalf("audit entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no audit entries after rollback, got %d", len(entries))
	}
}

func TestClientTransferRepository_SubmitAndEdit(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	entityID, key := seedTransaction(t, db, domain.StatusFunded)
	repo := postgres.NewClientTransferRepository(db)

	transfer, err := repo.SubmitTransfer(ctx, domain.TransferRequest{
		EntityID:       entityID,
		Type:           domain.TransferTypeClientReversal,
		Amount:         decimal.RequireFromString("40.00"),
		RoutingNumber:  "021000021",
		AccountType:    "C",
		AccountNumber:  "enc",
		BatchType:      domain.BatchTypeACHSettlement,
		SystemCode:     domain.SystemCodeDebit,
		SourceKey:      key,
		SourceApp:      domain.SourceAppPortal,
		Source:         domain.SourceOnline,
		CustomerNumber: "C-1",
	})
	if err != nil {
		t.Fatalf("submit transfer: %v", err)
	}
	if !transfer.IsDebit() {
		t.Fatalf("expected debit transfer, got amount %s", transfer.Amount)
	}

	rv, err := repo.UpdateTransfer(ctx, domain.TransferEdit{
		TrackingNumber: transfer.TrackingNumber,
		Amount:         decimal.RequireFromString("35.00"),
		RoutingNumber:  "021000021",
		AccountType:    "S",
		AccountNumber:  "enc2",
		Actor:          "jdoe",
	})
	if err != nil || rv != "1" {
		t.Fatalf("expected successful edit, rv=%s err=%v", rv, err)
	}

	stored, err := repo.GetByTrackingNumber(ctx, transfer.TrackingNumber)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("-35.00")) || stored.AccountType != "S" {
		t.Fatalf("unexpected stored transfer %+v", stored)
	}

	codes := postgres.NewErrorCodeRepository(db)
	description, err := codes.Describe(ctx, "01")
	if err != nil || description == "" {
		t.Fatalf("expected seeded description, got %q err=%v", description, err)
	}
}

func TestCoreMessageRepository_MarkNotApplicable(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	_, key := seedTransaction(t, db, domain.StatusPending)

	cipher, err := security.NewAccountCipher(make([]byte, 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	repo := postgres.NewCoreMessageRepository(db, cipher)

	if err := repo.SaveMessage(ctx, domain.CoreMessage{
		Type:           domain.CoreEventReversalNote,
		Status:         domain.CorePostPending,
		TransactionKey: key,
		AccountNumber:  "000123456789",
		Amount:         decimal.RequireFromString("125.50"),
		Actor:          "jdoe",
	}); err != nil {
		t.Fatalf("save message: %v", err)
	}
	if err := repo.MarkNotApplicable(ctx, key, "jdoe", 9); err != nil {
		t.Fatalf("mark not applicable: %v", err)
	}

	var pending int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM core_messages WHERE transaction_key = $1 AND status = 'PENDING'`, key).Scan(&pending); err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending messages, got %d", pending)
	}

	var stored string
	if err := db.QueryRowContext(ctx, `SELECT account_number FROM core_messages WHERE transaction_key = $1`, key).Scan(&stored); err != nil {
		t.Fatalf("read account number: %v", err)
	}
	if stored == "000123456789" {
		t.Fatal("expected account number to be stored encrypted")
	}
}
