package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeTransactions struct {
	txs    map[int64]domain.Transaction
	splits map[int64][]domain.SplitPayment

	updateStatusFn      func(update domain.StatusUpdate) (bool, error)
	updateTransactionFn func(tx domain.Transaction) (bool, error)

	statusUpdates        []domain.StatusUpdate
	transactionUpdates   []domain.Transaction
	splitTrackingUpdates []string
}

func newFakeTransactions(txs ...domain.Transaction) *fakeTransactions {
	f := &fakeTransactions{txs: map[int64]domain.Transaction{}, splits: map[int64][]domain.SplitPayment{}}
	for _, tx := range txs {
		f.txs[tx.Key] = tx
	}
	return f
}

func (f *fakeTransactions) GetByKey(_ context.Context, key int64) (domain.Transaction, error) {
	tx, ok := f.txs[key]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return tx, nil
}

func (f *fakeTransactions) GetByTrackingNumber(_ context.Context, trackingNumber string) (domain.Transaction, error) {
	for _, tx := range f.txs {
		if tx.TrackingNumber == trackingNumber {
			return tx, nil
		}
	}
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (f *fakeTransactions) GetByExternalTrackingNumber(_ context.Context, ext string) (domain.Transaction, error) {
	var (
		found domain.Transaction
		ok    bool
	)
	for _, tx := range f.txs {
		if tx.ExternalTrackingNumber == ext && (!ok || tx.Key > found.Key) {
			found, ok = tx, true
		}
	}
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return found, nil
}

func (f *fakeTransactions) UpdateStatus(_ context.Context, update domain.StatusUpdate) (bool, error) {
	if f.updateStatusFn != nil {
		ok, err := f.updateStatusFn(update)
		if err != nil || !ok {
			return ok, err
		}
	}
	tx, ok := f.txs[update.Key]
	if !ok || (update.ExpectedVersion != 0 && update.ExpectedVersion != tx.Version) {
		return false, nil
	}
	tx.Status = update.Status
	tx.Version++
	f.txs[update.Key] = tx
	f.statusUpdates = append(f.statusUpdates, update)
	return true, nil
}

func (f *fakeTransactions) UpdateTransaction(_ context.Context, tx domain.Transaction, _ string) (bool, error) {
	if f.updateTransactionFn != nil {
		ok, err := f.updateTransactionFn(tx)
		if err != nil || !ok {
			return ok, err
		}
	}
	current, ok := f.txs[tx.Key]
	if !ok || (tx.Version != 0 && tx.Version != current.Version) {
		return false, nil
	}
	tx.Version = current.Version + 1
	f.txs[tx.Key] = tx
	f.transactionUpdates = append(f.transactionUpdates, tx)
	return true, nil
}

func (f *fakeTransactions) SplitPayments(_ context.Context, key int64) ([]domain.SplitPayment, error) {
	return f.splits[key], nil
}

func (f *fakeTransactions) UpdateSplitPaymentTrackingNumbers(_ context.Context, _ int64, trackingNumber string) error {
	f.splitTrackingUpdates = append(f.splitTrackingUpdates, trackingNumber)
	return nil
}

func (f *fakeTransactions) writes() int {
	return len(f.statusUpdates) + len(f.transactionUpdates) + len(f.splitTrackingUpdates)
}

type fakeAuditLog struct {
	appendFn func(entry domain.AuditLogEntry) error
	entries  []domain.AuditLogEntry
}

func (f *fakeAuditLog) Append(_ context.Context, entry domain.AuditLogEntry) error {
	if f.appendFn != nil {
		if err := f.appendFn(entry); err != nil {
			return err
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditLog) withAction(action string) []domain.AuditLogEntry {
	var out []domain.AuditLogEntry
	for _, entry := range f.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type fakeEntities struct {
	entity domain.EntityAccount
	err    error
}

func (f fakeEntities) GetEntityAccount(_ context.Context, _ int64) (domain.EntityAccount, error) {
	return f.entity, f.err
}

type fakeFunds struct {
	submitFn func(req domain.TransferRequest) (domain.ClientTransfer, error)
	requests []domain.TransferRequest
}

func (f *fakeFunds) SubmitTransfer(_ context.Context, req domain.TransferRequest) (domain.ClientTransfer, error) {
	f.requests = append(f.requests, req)
	if f.submitFn != nil {
		return f.submitFn(req)
	}
	return committedTransfer(len(f.requests), req), nil
}

func committedTransfer(id int, req domain.TransferRequest) domain.ClientTransfer {
	amount := req.Amount
	if req.SystemCode == domain.SystemCodeDebit {
		amount = amount.Neg()
	}
	return domain.ClientTransfer{
		ID:                   int64(100 + id),
		TrackingNumber:       fmt.Sprintf("REV%d", 100+id),
		EntityID:             req.EntityID,
		Type:                 req.Type,
		SystemCode:           req.SystemCode,
		Amount:               amount,
		SourceKey:            req.SourceKey,
		SourceTrackingNumber: req.SourceTrackingNumber,
	}
}

type fakeAlerts struct {
	postErr   error
	deleteErr error
	posted    []domain.AlertType
	deleted   []domain.AlertType
	events    []string
}

func (f *fakeAlerts) Post(_ context.Context, alertType domain.AlertType, _ domain.AlertDetails) error {
	f.posted = append(f.posted, alertType)
	f.events = append(f.events, "post "+string(alertType))
	return f.postErr
}

func (f *fakeAlerts) Delete(_ context.Context, alertType domain.AlertType, _ domain.AlertDetails, _ int64) error {
	f.deleted = append(f.deleted, alertType)
	f.events = append(f.events, "delete "+string(alertType))
	return f.deleteErr
}

// lastAlertEvent reports whether alertType was last posted or deleted.
func (f *fakeAlerts) lastAlertEvent(alertType domain.AlertType) string {
	for i := len(f.events) - 1; i >= 0; i-- {
		if verb, name, _ := strings.Cut(f.events[i], " "); name == string(alertType) {
			return verb
		}
	}
	return ""
}

func hasAlert(types []domain.AlertType, want domain.AlertType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

type fakeCore struct {
	postErr       error
	events        []domain.CoreEvent
	messages      []domain.CoreMessage
	notApplicable []int64
}

func (f *fakeCore) Post(_ context.Context, event domain.CoreEvent) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeCore) SaveMessage(_ context.Context, msg domain.CoreMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeCore) MarkNotApplicable(_ context.Context, key int64, _ string, _ int64) error {
	f.notApplicable = append(f.notApplicable, key)
	return nil
}

type fakeMappings struct {
	mapping *domain.CoreMapping
	err     error
}

func (f fakeMappings) ByEntityID(_ context.Context, _ int64) (*domain.CoreMapping, error) {
	return f.mapping, f.err
}

// plainCipher treats "enc:" prefixed values as ciphertext.
type plainCipher struct{}

func (plainCipher) Decrypt(ciphertext string) (string, error) {
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

func (plainCipher) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

type fakeErrorCodes map[string]string

func (f fakeErrorCodes) Describe(_ context.Context, code string) (string, error) {
	if description, ok := f[code]; ok {
		return description, nil
	}
	return "", fmt.Errorf("settlement error code %s: %w", code, domain.ErrRecordNotFound)
}

type fakeTxManager struct {
	calls int
	err   error
}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.err = fn(ctx)
	return f.err
}

type fakeNotifications struct {
	notification *domain.Notification
	removed      []int64
	marked       []int64
}

func (f *fakeNotifications) GetByTransactionKey(_ context.Context, _ int64) (*domain.Notification, error) {
	return f.notification, nil
}

func (f *fakeNotifications) Remove(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeNotifications) MarkPrintStatus(_ context.Context, id int64, _ string) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeProcessingDetails struct {
	detail *domain.ProcessingDetail
}

func (f fakeProcessingDetails) Get(_ context.Context, _ int64, _ string) (*domain.ProcessingDetail, error) {
	return f.detail, nil
}

type fakeRefundRecords struct {
	approved *domain.RefundRecord
	inserted []domain.RefundRecord
}

func (f *fakeRefundRecords) Insert(_ context.Context, record domain.RefundRecord) error {
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeRefundRecords) GetApproved(_ context.Context, _ int64) (*domain.RefundRecord, error) {
	return f.approved, nil
}

type fakeGatewayClient struct {
	family   domain.GatewayFamily
	resp     *domain.GatewayResponse
	err      error
	requests []domain.GatewayRequest
}

func (f *fakeGatewayClient) Family() domain.GatewayFamily {
	return f.family
}

func (f *fakeGatewayClient) VoidOrRefund(_ context.Context, req domain.GatewayRequest) (*domain.GatewayResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

// classifyingGatewayClient reports declines with code 51 and resolves the history id.
type classifyingGatewayClient struct {
	*fakeGatewayClient
}

func (classifyingGatewayClient) IsDecline(resp domain.GatewayResponse) bool {
	return resp.ResultCode == "51"
}

func (classifyingGatewayClient) IsSoftFailure(resp domain.GatewayResponse) bool {
	return resp.ResultCode == "51" || resp.ResultCode == "54"
}

func (classifyingGatewayClient) GatewayTransactionID(detail domain.ProcessingDetail) string {
	return detail.TransactionHistoryID
}

type fakeGateways struct {
	client domain.GatewayClient
	err    error
}

func (f fakeGateways) Resolve(_ string) (domain.GatewayClient, error) {
	return f.client, f.err
}

type fakeCardRefunder struct {
	resp     *domain.GatewayResponse
	err      error
	requests []domain.CardRefundRequest
}

func (f *fakeCardRefunder) Refund(_ context.Context, req domain.CardRefundRequest) (*domain.GatewayResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

type policyStub struct {
	allow          bool
	windowExceeded bool
}

func (p policyStub) Allow(_ context.Context, _ domain.ReversalPolicyInput) bool {
	return p.allow
}

func (p policyStub) RefundWindowExceeded(_ domain.ReversalPolicyInput) bool {
	return p.windowExceeded
}

type fakeEmail struct {
	err      error
	messages []string
}

func (f *fakeEmail) SendFailedRefundChargeback(_ context.Context, _ domain.Transaction, _ domain.EntityAccount, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type routingStub bool

func (r routingStub) Valid(_ string) bool {
	return bool(r)
}

type fakeSettlements struct {
	transfer    domain.ClientTransfer
	getErr      error
	returnValue string
	edits       []domain.TransferEdit
	linked      []domain.ClientTransfer
}

func (f *fakeSettlements) GetByTrackingNumber(_ context.Context, trackingNumber string) (domain.ClientTransfer, error) {
	if f.getErr != nil {
		return domain.ClientTransfer{}, f.getErr
	}
	if trackingNumber != f.transfer.TrackingNumber {
		return domain.ClientTransfer{}, domain.ErrRecordNotFound
	}
	return f.transfer, nil
}

func (f *fakeSettlements) UpdateTransfer(_ context.Context, edit domain.TransferEdit) (string, error) {
	f.edits = append(f.edits, edit)
	return f.returnValue, nil
}

func (f *fakeSettlements) RecordResubmission(_ context.Context, _ domain.ClientTransfer, resubmitted domain.ClientTransfer, _ string) error {
	f.linked = append(f.linked, resubmitted)
	return nil
}

var errBoom = errors.New("boom")

func mustDecimal(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}
