package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// memDB is an in-memory stand-in for the relational store. WithTx holds the lock for the whole
// transaction and restores a snapshot when fn fails.
type memDB struct {
	mu            sync.Mutex
	nextID        int64
	clock         time.Time
	users         map[int64]*model.User
	sellers       map[int64]*model.Seller
	products      map[int64]*model.Product
	orders        map[int64]*model.Order
	notifications map[int64]*model.Notification
	wishlist      []model.WishlistItem
	feedback      []model.Feedback
	failOn        map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         map[int64]*model.User{},
		sellers:       map[int64]*model.Seller{},
		products:      map[int64]*model.Product{},
		orders:        map[int64]*model.Order{},
		notifications: map[int64]*model.Notification{},
		failOn:        map[string]error{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) now() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

// --- seeding ---

func (db *memDB) addClient(username string) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &model.User{ID: db.id(), Username: username, Email: username + "@example.com", CreatedAt: db.now()}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addSeller(username, business string) *model.Seller {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &model.User{ID: db.id(), Username: username, Email: username + "@example.com", CreatedAt: db.now()}
	s := &model.Seller{ID: db.id(), UserID: u.ID, Username: username, BusinessName: business}
	u.SellerID = &s.ID
	db.users[u.ID] = u
	db.sellers[s.ID] = s
	return s
}

func (db *memDB) addProduct(sellerID int64, name, price string, qty int) *model.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.now()
	p := &model.Product{
		ID: db.id(), SellerID: sellerID, PublisherName: "shop", Name: name,
		Quantity: qty, Price: decimal.RequireFromString(price), Category: model.CategoryPhones,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	db.products[p.ID] = p
	return p
}

func (db *memDB) setStock(id int64, qty int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[id].Quantity = qty
}

func (db *memDB) setPrice(id int64, price string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[id].Price = decimal.RequireFromString(price)
}

func (db *memDB) setActive(id int64, active bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[id].IsActive = active
}

func (db *memDB) stock(id int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id].Quantity
}

func (db *memDB) orderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

func (db *memDB) notificationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.notifications)
}

func (db *memDB) order(id int64) model.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	return copyOrder(db.orders[id])
}

func (db *memDB) notification(id int64) model.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.notifications[id]
}

func (db *memDB) notificationsFor(sellerID int64) []model.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Notification
	for _, n := range db.notifications {
		if n.SellerID == sellerID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyOrder(o *model.Order) model.Order {
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	return c
}

// --- Store ---

func (db *memDB) WithTx(_ context.Context, fn func(tx repository.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.snapshot()
	if err := fn(&memTx{db: db}); err != nil {
		db.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	nextID        int64
	products      map[int64]model.Product
	orders        map[int64]model.Order
	notifications map[int64]model.Notification
}

func (db *memDB) snapshot() memSnapshot {
	s := memSnapshot{
		nextID:        db.nextID,
		products:      make(map[int64]model.Product, len(db.products)),
		orders:        make(map[int64]model.Order, len(db.orders)),
		notifications: make(map[int64]model.Notification, len(db.notifications)),
	}
	for id, p := range db.products {
		s.products[id] = *p
	}
	for id, o := range db.orders {
		s.orders[id] = copyOrder(o)
	}
	for id, n := range db.notifications {
		s.notifications[id] = *n
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.nextID = s.nextID
	db.products = make(map[int64]*model.Product, len(s.products))
	for id, p := range s.products {
		p := p
		db.products[id] = &p
	}
	db.orders = make(map[int64]*model.Order, len(s.orders))
	for id, o := range s.orders {
		o := o
		db.orders[id] = &o
	}
	db.notifications = make(map[int64]*model.Notification, len(s.notifications))
	for id, n := range s.notifications {
		n := n
		db.notifications[id] = &n
	}
}

type memTx struct{ db *memDB }

func (t *memTx) fail(op string) error { return t.db.failOn[op] }

func (t *memTx) LockProducts(_ context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error) {
	if err := t.fail("LockProducts"); err != nil {
		return nil, err
	}
	out := map[int64]model.Product{}
	for _, id := range ids {
		if p, ok := t.db.products[id]; ok && p.SellerID == sellerID && p.IsActive {
			out[id] = *p
		}
	}
	return out, nil
}

func (t *memTx) DecrementStock(_ context.Context, productID int64, quantity int) error {
	if err := t.fail("DecrementStock"); err != nil {
		return err
	}
	p, ok := t.db.products[productID]
	if !ok || p.Quantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= quantity
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, order *model.Order) error {
	if err := t.fail("CreateOrder"); err != nil {
		return err
	}
	order.ID = t.db.id()
	order.CreatedAt = t.db.now()
	stored := *order
	stored.Items = nil
	t.db.orders[order.ID] = &stored
	return nil
}

func (t *memTx) CreateOrderItems(_ context.Context, orderID int64, items []model.OrderItem) error {
	if err := t.fail("CreateOrderItems"); err != nil {
		return err
	}
	o := t.db.orders[orderID]
	for i := range items {
		items[i].ID = t.db.id()
		items[i].OrderID = orderID
		o.Items = append(o.Items, items[i])
	}
	return nil
}

func (t *memTx) CreateNotification(_ context.Context, n *model.Notification) error {
	if err := t.fail("CreateNotification"); err != nil {
		return err
	}
	n.ID = t.db.id()
	n.CreatedAt = t.db.now()
	n.IsRead = false
	stored := *n
	t.db.notifications[n.ID] = &stored
	return nil
}

func (t *memTx) LockNotification(_ context.Context, id, sellerID int64) (*model.Notification, error) {
	if err := t.fail("LockNotification"); err != nil {
		return nil, err
	}
	n, ok := t.db.notifications[id]
	if !ok || n.SellerID != sellerID {
		return nil, nil
	}
	c := *n
	c.OrderStatus = t.db.orders[n.OrderID].Status
	return &c, nil
}

func (t *memTx) TransitionOrder(_ context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	if err := t.fail("TransitionOrder"); err != nil {
		return false, err
	}
	o, ok := t.db.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (t *memTx) MarkNotificationRead(_ context.Context, id int64) error {
	if err := t.fail("MarkNotificationRead"); err != nil {
		return err
	}
	t.db.notifications[id].IsRead = true
	return nil
}

// --- ProductRepository ---

type memProductRepo struct{ db *memDB }

func (r memProductRepo) Create(_ context.Context, p *model.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = r.db.id()
	p.IsActive = true
	p.CreatedAt = r.db.now()
	p.UpdatedAt = p.CreatedAt
	c := *p
	r.db.products[p.ID] = &c
	return nil
}

func (r memProductRepo) GetByID(_ context.Context, id int64) (*model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memProductRepo) Browse(_ context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []model.Product
	for _, p := range r.db.products {
		if !p.Available() {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(f.Search)) {
			continue
		}
		if f.SellerID != 0 && p.SellerID != f.SellerID {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (r memProductRepo) ListBySeller(_ context.Context, sellerID int64) ([]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Product
	for _, p := range r.db.products {
		if p.SellerID == sellerID && p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memProductRepo) ListForCart(_ context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[int64]model.Product{}
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok && p.SellerID == sellerID && p.IsActive {
			out[id] = *p
		}
	}
	return out, nil
}

func (r memProductRepo) Update(_ context.Context, p *model.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.products[p.ID]
	if !ok || !stored.IsActive {
		return nil
	}
	p.UpdatedAt = r.db.now()
	c := *p
	r.db.products[p.ID] = &c
	return nil
}

func (r memProductRepo) SoftDelete(_ context.Context, id, sellerID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok || p.SellerID != sellerID {
		return false, nil
	}
	p.IsActive = false
	return true, nil
}

func (r memProductRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, o := range r.db.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return repository.ErrProductReferenced
			}
		}
	}
	delete(r.db.products, id)
	return nil
}

// --- OrderRepository ---

type memOrderRepo struct{ db *memDB }

func (r memOrderRepo) decorate(o *model.Order) model.Order {
	c := copyOrder(o)
	if u, ok := r.db.users[o.ClientID]; ok {
		c.ClientUsername = u.Username
	}
	if s, ok := r.db.sellers[o.SellerID]; ok {
		c.SellerName = s.DisplayName()
	}
	for i := range c.Items {
		if p, ok := r.db.products[c.Items[i].ProductID]; ok {
			c.Items[i].ProductName = p.Name
		}
	}
	return c
}

func (r memOrderRepo) GetByID(_ context.Context, id int64) (*model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return nil, nil
	}
	c := r.decorate(o)
	return &c, nil
}

func (r memOrderRepo) list(keep func(*model.Order) bool) []model.Order {
	var out []model.Order
	for _, o := range r.db.orders {
		if keep(o) {
			out = append(out, r.decorate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memOrderRepo) ListByClient(_ context.Context, clientID int64) ([]model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.list(func(o *model.Order) bool { return o.ClientID == clientID }), nil
}

func (r memOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.list(func(*model.Order) bool { return true }), nil
}

func (r memOrderRepo) SellerStats(_ context.Context, sellerID int64) (*model.SellerStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &model.SellerStats{TotalSales: decimal.Zero}
	for _, p := range r.db.products {
		if p.SellerID == sellerID && p.IsActive {
			s.ProductsCount++
		}
	}
	for _, o := range r.db.orders {
		if o.SellerID != sellerID {
			continue
		}
		s.OrdersCount++
		switch o.Status {
		case model.OrderStatusPending:
			s.PendingCount++
		case model.OrderStatusCompleted:
			s.CompletedCount++
			s.TotalSales = s.TotalSales.Add(o.Total())
		}
	}
	return s, nil
}

// --- NotificationRepository ---

type memNotificationRepo struct{ db *memDB }

func (r memNotificationRepo) ListBySeller(_ context.Context, sellerID int64) ([]model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Notification
	for _, n := range r.db.notifications {
		if n.SellerID == sellerID {
			c := *n
			c.OrderStatus = r.db.orders[n.OrderID].Status
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memNotificationRepo) UnreadIDs(_ context.Context, sellerID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []int64
	for _, n := range r.db.notifications {
		if n.SellerID == sellerID && !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memNotificationRepo) CountUnread(ctx context.Context, sellerID int64) (int, error) {
	ids, err := r.UnreadIDs(ctx, sellerID)
	return len(ids), err
}

// --- WishlistRepository ---

type memWishlistRepo struct{ db *memDB }

func (r memWishlistRepo) Add(_ context.Context, clientID, productID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, w := range r.db.wishlist {
		if w.ClientID == clientID && w.Product.ID == productID {
			return false, nil
		}
	}
	r.db.wishlist = append(r.db.wishlist, model.WishlistItem{
		ID: r.db.id(), ClientID: clientID, Product: model.Product{ID: productID}, AddedAt: r.db.now(),
	})
	return true, nil
}

func (r memWishlistRepo) Remove(_ context.Context, clientID, productID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.wishlist[:0]
	for _, w := range r.db.wishlist {
		if !(w.ClientID == clientID && w.Product.ID == productID) {
			kept = append(kept, w)
		}
	}
	r.db.wishlist = kept
	return nil
}

func (r memWishlistRepo) ListByClient(_ context.Context, clientID int64) ([]model.WishlistItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.WishlistItem
	for i := len(r.db.wishlist) - 1; i >= 0; i-- {
		w := r.db.wishlist[i]
		if w.ClientID == clientID {
			w.Product = *r.db.products[w.Product.ID]
			out = append(out, w)
		}
	}
	return out, nil
}

// --- FeedbackRepository ---

type memFeedbackRepo struct{ db *memDB }

func (r memFeedbackRepo) authorName(f model.Feedback) string {
	if f.SellerID != 0 {
		if s, ok := r.db.sellers[f.SellerID]; ok {
			return s.DisplayName()
		}
		return ""
	}
	if u, ok := r.db.users[f.ClientID]; ok {
		return u.Username
	}
	return ""
}

func (r memFeedbackRepo) Create(_ context.Context, f *model.Feedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f.ID = r.db.id()
	f.CreatedAt = r.db.now()
	f.AuthorName = r.authorName(*f)
	r.db.feedback = append(r.db.feedback, *f)
	return nil
}

func (r memFeedbackRepo) List(_ context.Context) ([]model.Feedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Feedback, 0, len(r.db.feedback))
	for i := len(r.db.feedback) - 1; i >= 0; i-- {
		f := r.db.feedback[i]
		f.AuthorName = r.authorName(f)
		out = append(out, f)
	}
	return out, nil
}

func (r memFeedbackRepo) remove(keep func(model.Feedback) bool) bool {
	kept := r.db.feedback[:0]
	removed := false
	for _, f := range r.db.feedback {
		if keep(f) {
			kept = append(kept, f)
		} else {
			removed = true
		}
	}
	r.db.feedback = kept
	return removed
}

func (r memFeedbackRepo) DeleteByAuthor(_ context.Context, id int64, author model.Principal) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.remove(func(f model.Feedback) bool { return f.ID != id || !f.WrittenBy(author) }), nil
}

func (r memFeedbackRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.remove(func(f model.Feedback) bool { return f.ID != id }), nil
}

func (r memFeedbackRepo) Count(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.feedback), nil
}

// --- UserRepository ---

type memUserRepo struct{ db *memDB }

func (r memUserRepo) taken(u *model.User) bool {
	for _, existing := range r.db.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return true
		}
	}
	return false
}

func (r memUserRepo) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.taken(u) {
		return repository.ErrDuplicate
	}
	u.ID = r.db.id()
	u.CreatedAt = r.db.now()
	c := *u
	r.db.users[u.ID] = &c
	return nil
}

func (r memUserRepo) CreateSeller(_ context.Context, u *model.User, s *model.Seller) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.taken(u) {
		return repository.ErrDuplicate
	}
	u.ID = r.db.id()
	u.CreatedAt = r.db.now()
	s.ID = r.db.id()
	s.UserID = u.ID
	s.Username = u.Username
	u.SellerID = &s.ID
	cu, cs := *u, *s
	r.db.users[u.ID] = &cu
	r.db.sellers[s.ID] = &cs
	return nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) GetSeller(_ context.Context, id int64) (*model.Seller, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sellers[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r memUserRepo) CountClients(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, u := range r.db.users {
		if !u.IsSuperuser && u.SellerID == nil {
			n++
		}
	}
	return n, nil
}

func (r memUserRepo) CountSellers(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sellers), nil
}

func (r memUserRepo) SellerProductCounts(_ context.Context) ([]model.SellerProductCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.SellerProductCount
	for _, s := range r.db.sellers {
		c := model.SellerProductCount{SellerID: s.ID, Username: s.Username, BusinessName: s.BusinessName}
		for _, p := range r.db.products {
			if p.SellerID == s.ID {
				c.ProductCount++
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductCount != out[j].ProductCount {
			return out[i].ProductCount > out[j].ProductCount
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// --- CartRepository ---

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]model.Cart
	saves int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]model.Cart{}}
}

func (r *memCartRepo) Get(_ context.Context, session string) (*model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[session]
	c := &model.Cart{SellerID: stored.SellerID, Items: map[int64]int{}}
	if ok {
		for id, q := range stored.Items {
			c.Items[id] = q
		}
	}
	return c, nil
}

func (r *memCartRepo) Save(_ context.Context, session string, cart *model.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	items := map[int64]int{}
	for id, q := range cart.Items {
		if q > 0 {
			items[id] = q
		}
	}
	if cart.SellerID == 0 || len(items) == 0 {
		delete(r.carts, session)
		return nil
	}
	r.carts[session] = model.Cart{SellerID: cart.SellerID, Items: items}
	return nil
}

func (r *memCartRepo) Clear(_ context.Context, session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, session)
	return nil
}

func (r *memCartRepo) raw(session string) (model.Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[session]
	return c, ok
}

// --- publisher ---

type memPublisher struct {
	mu     sync.Mutex
	events []model.OrderPlacedEvent
	err    error
}

func (p *memPublisher) PublishOrderPlaced(_ context.Context, e model.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) published() []model.OrderPlacedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.OrderPlacedEvent(nil), p.events...)
}

// --- environment ---

type testEnv struct {
	db            *memDB
	carts         *memCartRepo
	publisher     *memPublisher
	auth          *AuthService
	products      *ProductService
	cart          *CartService
	checkout      *CheckoutService
	notifications *NotificationService
	orders        *OrderService
	wishlist      *WishlistService
	feedback      *FeedbackService
	admin         *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	carts := newMemCartRepo()
	pub := &memPublisher{}

	productRepo := memProductRepo{db}
	userRepo := memUserRepo{db}
	orderRepo := memOrderRepo{db}
	notificationRepo := memNotificationRepo{db}
	feedbackRepo := memFeedbackRepo{db}

	cart := NewCartService(carts, productRepo, discardLog)
	return &testEnv{
		db:            db,
		carts:         carts,
		publisher:     pub,
		auth:          NewAuthService(userRepo, "test-secret", time.Hour, discardLog),
		products:      NewProductService(productRepo, userRepo, nil, time.Minute, discardLog),
		cart:          cart,
		checkout:      NewCheckoutService(db, cart, carts, pub, "DZD", discardLog),
		notifications: NewNotificationService(db, notificationRepo, discardLog),
		orders:        NewOrderService(orderRepo, notificationRepo),
		wishlist:      NewWishlistService(memWishlistRepo{db}, productRepo),
		feedback:      NewFeedbackService(feedbackRepo, discardLog),
		admin:         NewAdminService(userRepo, orderRepo, feedbackRepo),
	}
}

func clientOf(u *model.User, session string) model.Principal {
	return model.ClientPrincipal(u.ID, u.Username, session)
}

func sellerOf(s *model.Seller) model.Principal {
	return model.SellerPrincipal(s.ID, s.Username, "seller-session")
}

func validPayment() dto.PaymentRequest {
	return dto.PaymentRequest{
		Method:      "card",
		Cardholder:  "Alice Example",
		CardNumber:  "4111 1111 1111 1111",
		ExpiryMonth: 12,
		ExpiryYear:  2030,
		CVV:         "123",
	}
}
