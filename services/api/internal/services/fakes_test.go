package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/gateway"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
)

// memDB is an in-memory Store. Transactions are serialized; a failed transaction replays its undo log.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	inTx bool
	undo []func()

	orders   map[uuid.UUID]models.Order
	payments map[string]models.Payment
	outbox   []models.OutboxEvent
	products map[uuid.UUID]models.Product
	users    map[string]models.User

	markPaidErr  error
	outboxErr    error
	findErr      error
	beforeInsert func()
}

func newMemDB() *memDB {
	return &memDB{
		orders:   map[uuid.UUID]models.Order{},
		payments: map[string]models.Payment{},
		products: map[uuid.UUID]models.Product{},
		users:    map[string]models.User{},
	}
}

func (m *memDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("memDB: raw sql not supported")
}

func (m *memDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("memDB: raw sql not supported")
}

func (m *memDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (m *memDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.inTx, m.undo = true, nil
	m.mu.Unlock()

	err := fn(ctx, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		for i := len(m.undo) - 1; i >= 0; i-- {
			m.undo[i]()
		}
	}
	m.inTx, m.undo = false, nil
	return err
}

// onRollback must be called with mu held.
func (m *memDB) onRollback(fn func()) {
	if m.inTx {
		m.undo = append(m.undo, fn)
	}
}

func (m *memDB) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *memDB) order(id uuid.UUID) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memDB) addOrder(o models.Order) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = pkg.PaymentStatusUnpaid
	}
	if o.Status == "" {
		o.Status = pkg.OrderStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	m.orders[o.ID] = o
	return o
}

var _ Store = (*memDB)(nil)

type memOrderRepo struct{ db *memDB }

func (r memOrderRepo) Create(_ context.Context, _ database.Querier, o models.Order) (uuid.UUID, error) {
	o.ID = uuid.Nil
	o.PaymentStatus = pkg.PaymentStatusUnpaid
	return r.db.addOrder(o).ID, nil
}

func (r memOrderRepo) FindByID(_ context.Context, _ database.Querier, id uuid.UUID) (models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.findErr != nil {
		return models.Order{}, r.db.findErr
	}
	o, ok := r.db.orders[id]
	if !ok {
		return models.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (r memOrderRepo) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error) {
	return r.FindByID(ctx, q, id)
}

func (r memOrderRepo) FindByEmail(_ context.Context, _ database.Querier, email string) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range r.db.orders {
		if strings.EqualFold(o.Email, email) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memOrderRepo) MarkPaid(_ context.Context, _ database.Querier, id uuid.UUID, trackingID string) (repositories.UpdateResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.markPaidErr != nil {
		return repositories.UpdateResult{}, r.db.markPaidErr
	}
	o, ok := r.db.orders[id]
	if !ok {
		return repositories.UpdateResult{}, nil
	}
	if o.IsPaid() {
		return repositories.UpdateResult{MatchedCount: 1}, nil
	}
	prev := o
	r.db.onRollback(func() { r.db.orders[id] = prev })
	o.PaymentStatus = pkg.PaymentStatusPaid
	o.TrackingID = &trackingID
	r.db.orders[id] = o
	return repositories.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, _ database.Querier, id uuid.UUID, status pkg.OrderStatus) (repositories.UpdateResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return repositories.UpdateResult{}, nil
	}
	if o.Status == status {
		return repositories.UpdateResult{MatchedCount: 1}, nil
	}
	prev := o
	r.db.onRollback(func() { r.db.orders[id] = prev })
	o.Status = status
	r.db.orders[id] = o
	return repositories.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r memOrderRepo) Delete(_ context.Context, _ database.Querier, id uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, ok := r.db.orders[id]
	if !ok {
		return 0, nil
	}
	r.db.onRollback(func() { r.db.orders[id] = prev })
	delete(r.db.orders, id)
	return 1, nil
}

type memPaymentRepo struct{ db *memDB }

func (r memPaymentRepo) FindByTransactionID(_ context.Context, _ database.Querier, transactionID string) (models.Payment, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[transactionID]
	return p, ok, nil
}

// replicaLagPaymentRepo hides every payment from reads outside a transaction, as a replica behind the primary would.
type replicaLagPaymentRepo struct{ memPaymentRepo }

func (r replicaLagPaymentRepo) FindByTransactionID(ctx context.Context, q database.Querier, transactionID string) (models.Payment, bool, error) {
	if _, pooled := q.(*memDB); pooled {
		return models.Payment{}, false, nil
	}
	return r.memPaymentRepo.FindByTransactionID(ctx, q, transactionID)
}

func (r memPaymentRepo) InsertIfAbsent(_ context.Context, _ database.Querier, p models.Payment) (models.Payment, bool, error) {
	if r.db.beforeInsert != nil {
		r.db.beforeInsert()
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.payments[p.TransactionID]; exists {
		return models.Payment{}, false, nil
	}
	p.ID = uuid.New()
	r.db.onRollback(func() { delete(r.db.payments, p.TransactionID) })
	r.db.payments[p.TransactionID] = p
	return p, true, nil
}

func (r memPaymentRepo) FindByEmail(_ context.Context, _ database.Querier, email string) ([]models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Payment, 0)
	for _, p := range r.db.payments {
		if strings.EqualFold(p.CustomerEmail, email) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

type memOutboxRepo struct{ db *memDB }

func (r memOutboxRepo) Save(_ context.Context, _ database.Querier, e models.OutboxEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.outboxErr != nil {
		return r.db.outboxErr
	}
	e.ID = int64(len(r.db.outbox) + 1)
	n := len(r.db.outbox)
	r.db.onRollback(func() { r.db.outbox = r.db.outbox[:n] })
	r.db.outbox = append(r.db.outbox, e)
	return nil
}

func (r memOutboxRepo) FindUnpublished(context.Context, database.Querier, int) ([]models.OutboxEvent, error) {
	return nil, nil
}

func (r memOutboxRepo) MarkPublished(context.Context, database.Querier, int64) error {
	return nil
}

type memProductRepo struct{ db *memDB }

func (r memProductRepo) List(context.Context, database.Querier) ([]models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Product, 0, len(r.db.products))
	for _, p := range r.db.products {
		out = append(out, p)
	}
	return out, nil
}

func (r memProductRepo) FindByID(_ context.Context, _ database.Querier, id uuid.UUID) (models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return models.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (r memProductRepo) Create(_ context.Context, _ database.Querier, p models.Product) (uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = uuid.New()
	r.db.products[p.ID] = p
	return p.ID, nil
}

type memUserRepo struct{ db *memDB }

func (r memUserRepo) CreateIfAbsent(_ context.Context, _ database.Querier, u models.User) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := r.db.users[key]; ok {
		return false, nil
	}
	r.db.onRollback(func() { delete(r.db.users, key) })
	r.db.users[key] = u
	return true, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	sessions  map[string]gateway.Session
	err       error
	created   []gateway.CreateSessionInput
	retrieved int
}

func (g *fakeGateway) CreateSession(_ context.Context, in gateway.CreateSessionInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.created = append(g.created, in)
	return "https://checkout.stripe.com/c/pay/cs_test", nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieved++
	if g.err != nil {
		return gateway.Session{}, g.err
	}
	s, ok := g.sessions[sessionID]
	if !ok {
		return gateway.Session{}, gateway.ErrSessionNotFound
	}
	return s, nil
}
