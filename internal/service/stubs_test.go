package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pdvinova/internal/infra"
	"pdvinova/internal/model"
	"pdvinova/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubUserRepo is an in-memory UserRepository.
type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// stubPunchRepo is an in-memory TimeClockRepository that enforces one open
// punch per worker, like the partial unique index.
type stubPunchRepo struct {
	recs    []*model.TimeClockRecord
	findErr error
}

func newStubPunchRepo() *stubPunchRepo { return &stubPunchRepo{} }

func (r *stubPunchRepo) FindOpen(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*model.TimeClockRecord, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var found *model.TimeClockRecord
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.IsOpen() && (found == nil || rec.ClockIn.After(found.ClockIn)) {
			found = rec
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *stubPunchRepo) Create(_ context.Context, _ *gorm.DB, rec *model.TimeClockRecord) error {
	for _, existing := range r.recs {
		if existing.UserID == rec.UserID && existing.IsOpen() {
			return repository.ErrDuplicate
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	r.recs = append(r.recs, &cp)
	return nil
}

func (r *stubPunchRepo) Close(_ context.Context, _ *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	for _, rec := range r.recs {
		if rec.ID == id && rec.IsOpen() {
			t := at
			rec.ClockOut = &t
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPunchRepo) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.TimeClockRecord, error) {
	var out []model.TimeClockRecord
	for _, rec := range r.recs {
		if rec.UserID == userID && !rec.ClockIn.Before(from) && rec.ClockIn.Before(to) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (r *stubPunchRepo) DB() *gorm.DB { return nil }

// open seeds an open punch.
func (r *stubPunchRepo) open(userID uuid.UUID, at time.Time) *model.TimeClockRecord {
	rec := &model.TimeClockRecord{ID: uuid.New(), UserID: userID, ClockIn: at}
	r.recs = append(r.recs, rec)
	return rec
}

func (r *stubPunchRepo) openCount(userID uuid.UUID) int {
	n := 0
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.IsOpen() {
			n++
		}
	}
	return n
}

var _ repository.TimeClockRepository = (*stubPunchRepo)(nil)

// stubShiftRepo is an in-memory ShiftRepository with version checks.
type stubShiftRepo struct {
	active     []model.ActiveShift
	closures   []model.ShiftClosure
	claimFails bool
	lastLimit  int
}

func newStubShiftRepo() *stubShiftRepo { return &stubShiftRepo{} }

func (r *stubShiftRepo) ListActive(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]model.ActiveShift, error) {
	var out []model.ActiveShift
	for _, s := range r.active {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *stubShiftRepo) CreateActive(_ context.Context, _ *gorm.DB, s *model.ActiveShift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.active = append(r.active, *s)
	return nil
}

func (r *stubShiftRepo) UpdateStartTime(_ context.Context, _ *gorm.DB, id uuid.UUID, version int, start time.Time) (bool, error) {
	for i := range r.active {
		if r.active[i].ID == id && r.active[i].Version == version {
			r.active[i].StartTime = start
			r.active[i].Version++
			return true, nil
		}
	}
	return false, nil
}

func (r *stubShiftRepo) DeleteActive(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.active[:0]
	for _, s := range r.active {
		if !drop[s.ID] {
			kept = append(kept, s)
		}
	}
	r.active = kept
	return nil
}

func (r *stubShiftRepo) DeleteActiveForUser(_ context.Context, _ *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	kept := r.active[:0]
	for _, s := range r.active {
		if s.UserID == userID {
			n++
			continue
		}
		kept = append(kept, s)
	}
	r.active = kept
	return n, nil
}

func (r *stubShiftRepo) ClaimActive(_ context.Context, _ *gorm.DB, id uuid.UUID, version int) (bool, error) {
	if r.claimFails {
		return false, nil
	}
	for i, s := range r.active {
		if s.ID == id && s.Version == version {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubShiftRepo) CreateClosure(_ context.Context, _ *gorm.DB, c *model.ShiftClosure) error {
	for _, existing := range r.closures {
		if existing.ActiveShiftID == c.ActiveShiftID || existing.ReceiptNumber == c.ReceiptNumber {
			return repository.ErrDuplicate
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.closures = append(r.closures, *c)
	return nil
}

func (r *stubShiftRepo) ListClosures(_ context.Context, userID uuid.UUID, limit int) ([]model.ShiftClosure, error) {
	r.lastLimit = limit
	var out []model.ShiftClosure
	for _, c := range r.closures {
		if c.UserID == userID && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubShiftRepo) DB() *gorm.DB { return nil }

var _ repository.ShiftRepository = (*stubShiftRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository.
type stubSaleRepo struct {
	sales      []model.Sale
	lastFilter repository.SaleFilter
}

func newStubSaleRepo() *stubSaleRepo { return &stubSaleRepo{} }

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		s.Items[i].SaleID = s.ID
	}
	r.sales = append(r.sales, *s)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	for i := range r.sales {
		if r.sales[i].ID == id {
			return &r.sales[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubSaleRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) (bool, error) {
	for i := range r.sales {
		if r.sales[i].ID == id {
			r.sales = append(r.sales[:i], r.sales[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSaleRepo) ListByUserBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.UserID == userID && !s.CreatedAt.Before(from) && !s.CreatedAt.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) List(_ context.Context, f repository.SaleFilter) ([]model.Sale, error) {
	r.lastFilter = f
	return r.sales, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

// add seeds a sale made by userID at the given time.
func (r *stubSaleRepo) add(userID uuid.UUID, at time.Time, total string, method model.PaymentMethod, brand string) {
	s := model.Sale{
		ID:            uuid.New(),
		UserID:        userID,
		Total:         decimal.RequireFromString(total),
		PaymentMethod: method,
		CreatedAt:     at,
	}
	if brand != "" {
		b := brand
		s.CardBrand = &b
	}
	r.sales = append(r.sales, s)
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubProductRepo records stock changes and upserts.
type stubProductRepo struct {
	products  map[uuid.UUID]model.Product
	stock     map[uuid.UUID]int
	movements []model.StockMovement
	upserts   [][]model.Product
	upsertErr func(batch []model.Product) error
}

func newStubProductRepo(products ...model.Product) *stubProductRepo {
	r := &stubProductRepo{
		products: make(map[uuid.UUID]model.Product),
		stock:    make(map[uuid.UUID]int),
	}
	for _, p := range products {
		r.products[p.ID] = p
		r.stock[p.ID] = p.StockQty
	}
	return r
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := make(map[uuid.UUID]model.Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubProductRepo) AdjustStock(_ context.Context, _ *gorm.DB, id uuid.UUID, delta int) error {
	r.stock[id] += delta
	return nil
}

func (r *stubProductRepo) CreateMovement(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubProductRepo) Upsert(_ context.Context, products []model.Product) error {
	batch := append([]model.Product(nil), products...)
	r.upserts = append(r.upserts, batch)
	if r.upsertErr != nil {
		return r.upsertErr(batch)
	}
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubInventoryRepo is an in-memory InventoryRepository keeping one open
// count per product, like the partial unique index.
type stubInventoryRepo struct {
	counts  []*model.InventoryCount
	applied map[uuid.UUID]int
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{applied: make(map[uuid.UUID]int)}
}

func (r *stubInventoryRepo) UpsertOpen(_ context.Context, c *model.InventoryCount) error {
	for _, existing := range r.counts {
		if existing.ProductID == c.ProductID && !existing.Closed {
			c.ID = existing.ID
			*existing = *c
			return nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.counts = append(r.counts, &cp)
	return nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryCount, error) {
	for _, c := range r.counts {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubInventoryRepo) LatestForProduct(_ context.Context, productID uuid.UUID) (*model.InventoryCount, error) {
	var found *model.InventoryCount
	for _, c := range r.counts {
		if c.ProductID == productID && (found == nil || c.CreatedAt.After(found.CreatedAt)) {
			found = c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *stubInventoryRepo) UpdateOpen(_ context.Context, id uuid.UUID, counted, difference int, category string) (bool, error) {
	for _, c := range r.counts {
		if c.ID == id && !c.Closed {
			c.CountedQty, c.Difference, c.Category = counted, difference, category
			return true, nil
		}
	}
	return false, nil
}

func (r *stubInventoryRepo) Close(_ context.Context, id uuid.UUID) (bool, error) {
	for _, c := range r.counts {
		if c.ID == id && !c.Closed {
			c.Closed = true
			return true, nil
		}
	}
	return false, nil
}

func (r *stubInventoryRepo) ListCounts(_ context.Context, f repository.InventoryFilter) ([]model.InventoryCount, error) {
	var out []model.InventoryCount
	for _, c := range r.counts {
		if !f.From.IsZero() && c.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.CreatedAt.Before(f.To) {
			continue
		}
		if f.UserName != "" && c.UserName != f.UserName {
			continue
		}
		if f.ProductID != nil && c.ProductID != *f.ProductID {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *stubInventoryRepo) ApplySale(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	r.applied[productID] += qty
	for _, c := range r.counts {
		if c.ProductID == productID && !c.Closed {
			c.CountedQty -= qty
			c.StockQty -= qty
		}
	}
	return nil
}

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

// stubLookupCache records invalidations.
type stubLookupCache struct {
	dropped []string
	flushes int
}

func (c *stubLookupCache) Drop(_ context.Context, barcodes ...string) {
	c.dropped = append(c.dropped, barcodes...)
}

func (c *stubLookupCache) Flush(context.Context) { c.flushes++ }

var _ LookupCache = (*stubLookupCache)(nil)

// stubRelay records outbound messages.
type stubRelay struct {
	mu       sync.Mutex
	texts    []sentText
	media    []infra.MediaMessage
	textErr  error
	mediaErr error
}

type sentText struct {
	Number string
	Text   string
}

func (r *stubRelay) SendText(_ context.Context, number, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.textErr != nil {
		return r.textErr
	}
	r.texts = append(r.texts, sentText{Number: number, Text: text})
	return nil
}

func (r *stubRelay) SendMedia(_ context.Context, m infra.MediaMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mediaErr != nil {
		return r.mediaErr
	}
	r.media = append(r.media, m)
	return nil
}

var _ Relay = (*stubRelay)(nil)

// syncLauncher runs detached work inline and records the outcome.
type syncLauncher struct {
	tasks  []string
	errors []error
}

func (l *syncLauncher) Go(task string, _ interface{}, fn func(ctx context.Context) error) {
	l.tasks = append(l.tasks, task)
	l.errors = append(l.errors, fn(context.Background()))
}

var _ Launcher = (*syncLauncher)(nil)

// stubLLM answers with a fixed reply or error.
type stubLLM struct {
	answer    string
	err       error
	questions []string
}

func (l *stubLLM) Ask(_ context.Context, _, question string) (string, error) {
	l.questions = append(l.questions, question)
	return l.answer, l.err
}

var _ LLM = (*stubLLM)(nil)

// seqReceipts hands out TURNO-1, TURNO-2...
type seqReceipts struct{ n int }

func (r *seqReceipts) ReceiptNumber() string {
	r.n++
	return fmt.Sprintf("TURNO-%d", r.n)
}

// stubEmailQueue records enqueued payloads.
type stubEmailQueue struct {
	payloads []interface{}
	err      error
}

func (q *stubEmailQueue) EnqueueEmail(_ context.Context, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

var _ EmailQueue = (*stubEmailQueue)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var (
	errBoom  = errors.New("boom")
	testLoc  = time.FixedZone("BRT", -3*60*60)
	testDay  = time.Date(2024, 3, 15, 0, 0, 0, 0, testLoc)
	testShop = StoreInfo{Name: "Loja Teste", CNPJ: "00.000.000/0001-00", INPI: "BR000"}
)

func hm(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func newWorker(number string) *model.User {
	u := &model.User{ID: uuid.New(), Name: "Maria Souza", Role: "funcionario"}
	if number != "" {
		n := number
		u.WhatsAppNumber = &n
	}
	return u
}

func newTestNotifier(relay Relay) NotificationService {
	return NewNotificationService(relay, NotificationConfig{CountryPrefix: "55", Store: testShop, Location: testLoc})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
