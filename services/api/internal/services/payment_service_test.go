package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/gateway"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/tracking"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var trackingPattern = regexp.MustCompile(`^PRCL-\d{8}-[0-9A-F]{6}$`)

type paymentFixture struct {
	db  *memDB
	gw  *fakeGateway
	svc PaymentService
}

func newPaymentFixture() *paymentFixture {
	db := newMemDB()
	gw := &fakeGateway{sessions: map[string]gateway.Session{}}
	svc := NewPaymentService(zap.NewNop(), db, gw, tracking.NewGenerator(),
		memOrderRepo{db}, memPaymentRepo{db}, memOutboxRepo{db})
	return &paymentFixture{db: db, gw: gw, svc: svc}
}

func paidSession(orderID string) gateway.Session {
	return gateway.Session{
		ID:            "cs_1",
		PaymentStatus: gateway.PaymentStatusPaid,
		TransactionID: "pi_1",
		AmountTotal:   5000,
		Currency:      "usd",
		CustomerEmail: "a@b.com",
		OrderID:       orderID,
		OrderName:     "Jacket",
	}
}

func TestReconcile_RecordsPaymentAndMarksOrderPaid(t *testing.T) {
	f := newPaymentFixture()
	order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50, ProductName: "Jacket"})
	f.gw.sessions["cs_1"] = paidSession(order.ID.String())

	resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.AlreadyRecorded)
	assert.Equal(t, "pi_1", resp.TransactionID)
	assert.Regexp(t, trackingPattern, resp.TrackingID)
	require.NotNil(t, resp.PaymentInfo)
	assert.Equal(t, 50.0, resp.PaymentInfo.Amount)
	assert.Equal(t, "usd", resp.PaymentInfo.Currency)
	assert.Equal(t, "a@b.com", resp.PaymentInfo.CustomerEmail)
	assert.Equal(t, order.ID.String(), resp.PaymentInfo.OrderID)
	assert.Equal(t, "Jacket", resp.PaymentInfo.OrderName)
	assert.Equal(t, pkg.PaymentStatusPaid, resp.PaymentInfo.PaymentStatus)
	assert.Equal(t, resp.TrackingID, resp.PaymentInfo.TrackingID)
	assert.Equal(t, &repositories.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, resp.ModifiedParcel)

	updated := f.db.order(order.ID)
	assert.Equal(t, pkg.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.TrackingID)
	assert.Equal(t, resp.TrackingID, *updated.TrackingID)

	assert.Equal(t, 1, f.db.paymentCount())
	require.Len(t, f.db.outbox, 1)
	assert.Equal(t, pkg.EventPaymentRecorded, f.db.outbox[0].EventType)
	assert.Equal(t, "pi_1", f.db.outbox[0].AggregateID)
	var event map[string]any
	require.NoError(t, json.Unmarshal(f.db.outbox[0].Payload, &event))
	assert.Equal(t, resp.TrackingID, event["trackingId"])
}

func TestReconcile_SecondCallIsIdempotent(t *testing.T) {
	f := newPaymentFixture()
	order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
	f.gw.sessions["cs_1"] = paidSession(order.ID.String())

	first, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
	require.NoError(t, err)
	second, err := f.svc.Reconcile(context.Background(), "trace-2", "cs_1")
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, first.PaymentInfo.ID, second.PaymentInfo.ID)
	assert.Nil(t, second.ModifiedParcel)
	assert.Equal(t, 1, f.db.paymentCount())
	assert.Len(t, f.db.outbox, 1)
	assert.Equal(t, first.TrackingID, *f.db.order(order.ID).TrackingID)
}

func TestReconcile_UnpaidSessionDoesNotMutate(t *testing.T) {
	for _, status := range []gateway.PaymentStatus{gateway.PaymentStatusUnpaid, gateway.PaymentStatusOther} {
		t.Run(string(status), func(t *testing.T) {
			f := newPaymentFixture()
			order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
			s := paidSession(order.ID.String())
			s.PaymentStatus = status
			f.gw.sessions["cs_1"] = s

			resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
			require.NoError(t, err)
			assert.Equal(t, views.ReconcileResponse{Success: false}, resp)
			assert.Zero(t, f.db.paymentCount())
			assert.Equal(t, pkg.PaymentStatusUnpaid, f.db.order(order.ID).PaymentStatus)
			assert.Empty(t, f.db.outbox)
		})
	}
}

func TestReconcile_UnpaidSessionWithoutPaymentIntent(t *testing.T) {
	f := newPaymentFixture()
	s := paidSession("ord1")
	s.PaymentStatus = gateway.PaymentStatusUnpaid
	s.TransactionID = ""
	f.gw.sessions["cs_1"] = s

	resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestReconcile_Failures(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		gwErr     error
		code      pkg.ErrorCode
	}{
		{name: "empty session id", sessionID: " ", code: pkg.ErrInvalidInputCode},
		{name: "unknown session", sessionID: "cs_missing", code: pkg.ErrRecordNotFoundCode},
		{name: "provider down", sessionID: "cs_1", gwErr: fmt.Errorf("%w: timeout", gateway.ErrGateway), code: pkg.ErrGatewayCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
			f.gw.sessions["cs_1"] = paidSession(order.ID.String())
			f.gw.err = tt.gwErr

			_, err := f.svc.Reconcile(context.Background(), "trace-1", tt.sessionID)
			assert.True(t, pkg.HasCode(err, tt.code), "got %v", err)
			assert.Zero(t, f.db.paymentCount())
			assert.Equal(t, pkg.PaymentStatusUnpaid, f.db.order(order.ID).PaymentStatus)
		})
	}
}

func TestReconcile_StoreFailureRollsBackEverything(t *testing.T) {
	for name, setup := range map[string]func(*memDB){
		"mark paid fails": func(db *memDB) { db.markPaidErr = errors.New("connection reset") },
		"outbox fails":    func(db *memDB) { db.outboxErr = errors.New("disk full") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newPaymentFixture()
			order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
			f.gw.sessions["cs_1"] = paidSession(order.ID.String())
			setup(f.db)

			_, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
			assert.True(t, pkg.HasCode(err, pkg.ErrStoreCode), "got %v", err)
			assert.Zero(t, f.db.paymentCount(), "payment insert must be rolled back")
			assert.Equal(t, pkg.PaymentStatusUnpaid, f.db.order(order.ID).PaymentStatus)
			assert.Nil(t, f.db.order(order.ID).TrackingID)
			assert.Empty(t, f.db.outbox)
		})
	}
}

func TestReconcile_UnknownOrderStillRecordsPayment(t *testing.T) {
	for _, orderID := range []string{"ord1", uuid.NewString()} {
		t.Run(orderID, func(t *testing.T) {
			f := newPaymentFixture()
			f.gw.sessions["cs_1"] = paidSession(orderID)

			resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, &repositories.UpdateResult{}, resp.ModifiedParcel)
			assert.Equal(t, 1, f.db.paymentCount())
		})
	}
}

func TestReconcile_ConflictOnInsertAnswersAlreadyRecorded(t *testing.T) {
	f := newPaymentFixture()
	order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
	f.gw.sessions["cs_1"] = paidSession(order.ID.String())

	// another replica commits the same transaction between the lookup and the insert
	f.db.beforeInsert = func() {
		f.db.mu.Lock()
		defer f.db.mu.Unlock()
		f.db.payments["pi_1"] = models.Payment{ID: uuid.New(), TransactionID: "pi_1", TrackingID: "PRCL-20240521-0A0B0C"}
	}

	resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.AlreadyRecorded)
	assert.Equal(t, "PRCL-20240521-0A0B0C", resp.TrackingID)
	assert.Equal(t, pkg.PaymentStatusUnpaid, f.db.order(order.ID).PaymentStatus, "loser must not touch the order")
	assert.Empty(t, f.db.outbox)
}

func TestReconcile_ReloadWithLaggingReplicaAnswersAlreadyRecorded(t *testing.T) {
	db := newMemDB()
	gw := &fakeGateway{sessions: map[string]gateway.Session{}}
	svc := NewPaymentService(zap.NewNop(), db, gw, tracking.NewGenerator(),
		memOrderRepo{db}, replicaLagPaymentRepo{memPaymentRepo{db}}, memOutboxRepo{db})
	order := db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
	gw.sessions["cs_1"] = paidSession(order.ID.String())

	first, err := svc.Reconcile(context.Background(), "trace-1", "cs_1")
	require.NoError(t, err)
	require.False(t, first.AlreadyRecorded)

	second, err := svc.Reconcile(context.Background(), "trace-2", "cs_1")
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, first.PaymentInfo.ID, second.PaymentInfo.ID)
	assert.Equal(t, 1, db.paymentCount())
	assert.Len(t, db.outbox, 1)
}

func TestReconcile_OrderPaidByOtherTransactionKeepsItsTrackingID(t *testing.T) {
	f := newPaymentFixture()
	existing := "PRCL-20240521-ABCDEF"
	order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50, PaymentStatus: pkg.PaymentStatusPaid, TrackingID: &existing})
	s := paidSession(order.ID.String())
	s.ID, s.TransactionID = "cs_2", "pi_2"
	f.gw.sessions["cs_2"] = s

	resp, err := f.svc.Reconcile(context.Background(), "trace-1", "cs_2")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.AlreadyRecorded)
	assert.Equal(t, existing, resp.TrackingID)
	assert.Equal(t, existing, resp.PaymentInfo.TrackingID)
	assert.Equal(t, &repositories.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, resp.ModifiedParcel)
	assert.Equal(t, existing, *f.db.order(order.ID).TrackingID)
	assert.Equal(t, 1, f.db.paymentCount())
}

func TestReconcile_ConcurrentCallsRecordOnce(t *testing.T) {
	f := newPaymentFixture()
	order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
	f.gw.sessions["cs_1"] = paidSession(order.ID.String())

	const callers = 16
	var wg sync.WaitGroup
	responses := make([]views.ReconcileResponse, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			responses[i], errs[i] = f.svc.Reconcile(context.Background(), "trace", "cs_1")
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, f.db.paymentCount())
	assert.Len(t, f.db.outbox, 1)
	fresh := 0
	for i := range responses {
		require.NoError(t, errs[i])
		assert.True(t, responses[i].Success)
		assert.Equal(t, responses[0].TrackingID, responses[i].TrackingID)
		if !responses[i].AlreadyRecorded {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestListPayments(t *testing.T) {
	f := newPaymentFixture()
	base := time.Date(2024, 5, 21, 10, 0, 0, 0, time.UTC)
	f.db.payments["pi_old"] = models.Payment{TransactionID: "pi_old", CustomerEmail: "a@b.com", PaidAt: base}
	f.db.payments["pi_new"] = models.Payment{TransactionID: "pi_new", CustomerEmail: "a@b.com", PaidAt: base.Add(time.Hour)}
	f.db.payments["pi_other"] = models.Payment{TransactionID: "pi_other", CustomerEmail: "b@c.com", PaidAt: base}

	list, err := f.svc.ListPayments(context.Background(), "trace-1", auth.Identity{Email: "A@b.com"}, "a@b.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pi_new", list[0].TransactionID)
	assert.Equal(t, "pi_old", list[1].TransactionID)

	_, err = f.svc.ListPayments(context.Background(), "trace-1", auth.Identity{Email: "b@c.com"}, "a@b.com")
	assert.True(t, pkg.HasCode(err, pkg.ErrForbiddenCode))

	_, err = f.svc.ListPayments(context.Background(), "trace-1", auth.Identity{Email: "a@b.com"}, "")
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode))
}

func TestCreateCheckoutSession(t *testing.T) {
	req := views.CheckoutRequest{Cost: 50, ParcelName: "Jacket", ParcelID: "ord1", SenderEmail: "a@b.com"}

	t.Run("legacy order id", func(t *testing.T) {
		f := newPaymentFixture()
		url, err := f.svc.CreateCheckoutSession(context.Background(), "trace-1", req)
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test", url)
		assert.Equal(t, []gateway.CreateSessionInput{{Cost: 50, Name: "Jacket", Email: "a@b.com", OrderID: "ord1"}}, f.gw.created)
	})

	t.Run("unpaid order", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50})
		r := req
		r.ParcelID = order.ID.String()
		_, err := f.svc.CreateCheckoutSession(context.Background(), "trace-1", r)
		require.NoError(t, err)
		assert.Len(t, f.gw.created, 1)
	})

	t.Run("paid order", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.db.addOrder(models.Order{Email: "a@b.com", Cost: 50, PaymentStatus: pkg.PaymentStatusPaid})
		r := req
		r.ParcelID = order.ID.String()
		_, err := f.svc.CreateCheckoutSession(context.Background(), "trace-1", r)
		assert.True(t, pkg.HasCode(err, pkg.ErrOrderAlreadyPaidCode), "got %v", err)
		assert.Empty(t, f.gw.created)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newPaymentFixture()
		r := req
		r.ParcelID = uuid.NewString()
		_, err := f.svc.CreateCheckoutSession(context.Background(), "trace-1", r)
		assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode), "got %v", err)
	})

	t.Run("gateway failure", func(t *testing.T) {
		f := newPaymentFixture()
		f.gw.err = fmt.Errorf("%w: card_declined", gateway.ErrGateway)
		_, err := f.svc.CreateCheckoutSession(context.Background(), "trace-1", req)
		assert.True(t, pkg.HasCode(err, pkg.ErrGatewayCode), "got %v", err)
	})
}
