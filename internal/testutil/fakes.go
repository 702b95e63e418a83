// Package testutil holds in-memory fakes of the repositories for service tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	domainUser "storefront/internal/domain/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepo is an in-memory product.Repository.
type ProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*product.Product
	ListErr  error
	Lists    int
}

func NewProductRepo(products ...*product.Product) *ProductRepo {
	r := &ProductRepo{products: make(map[uuid.UUID]*product.Product)}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepo) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == p.Name {
			return product.ErrProductAlreadyExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*product.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ProductRepo) List(_ context.Context, f *product.Filter) ([]*product.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lists++
	if r.ListErr != nil {
		return nil, 0, r.ListErr
	}

	var out []*product.Product
	for _, p := range r.products {
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.Size != "" && !strings.EqualFold(p.Size, f.Size) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.InStockOnly && p.Stock <= 0 {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *ProductRepo) UpdateStock(_ context.Context, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stock < 0 {
		return product.ErrInvalidStock
	}
	p, ok := r.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (r *ProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return nil, product.ErrInsufficientStock
	}
	p.Stock += delta
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) Categories(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range r.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Stock returns the current stock of a product, or -1 when it does not exist.
func (r *ProductRepo) Stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return p.Stock
	}
	return -1
}

// SetPrice changes a product price in place.
func (r *ProductRepo) SetPrice(id uuid.UUID, price decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[id].Price = price
}

// OrderRepo is an in-memory order.Repository that decrements stock on its ProductRepo
// with the same conditional semantics as the Postgres repository.
type OrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*order.Order
	products     *ProductRepo
	CreateErr    error
	ReferenceErr error
}

func NewOrderRepo(products *ProductRepo) *OrderRepo {
	return &OrderRepo{orders: make(map[uuid.UUID]*order.Order), products: products}
}

func (r *OrderRepo) CreateWithItems(_ context.Context, o *order.Order) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if len(o.Items) == 0 {
		return order.ErrNoItems
	}
	if !o.Consistent() {
		return order.ErrInconsistentTotal
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepo) GetByPaymentReference(_ context.Context, ref string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentReference != nil && *o.PaymentReference == ref {
			return cloneOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *OrderRepo) List(_ context.Context, f *order.Filter) ([]*order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Order
	for _, o := range r.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *OrderRepo) SetPaymentReference(_ context.Context, id uuid.UUID, ref string) error {
	if r.ReferenceErr != nil {
		return r.ReferenceErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.PaymentReference = &ref
	return nil
}

func (r *OrderRepo) Complete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, order.ErrOrderNotFound
	}
	if o.Status != order.StatusPending {
		return false, nil
	}

	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	for _, item := range o.Items {
		p, ok := r.products.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return false, product.ErrInsufficientStock
		}
	}
	for _, item := range o.Items {
		r.products.products[item.ProductID].Stock -= item.Quantity
	}

	now := time.Now().UTC()
	o.Status = order.StatusCompleted
	o.CompletedAt = &now
	return true, nil
}

func (r *OrderRepo) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, order.ErrOrderNotFound
	}
	if o.Status != order.StatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	o.Status = order.StatusCancelled
	o.CancelledAt = &now
	return true, nil
}

func (r *OrderRepo) GetStatistics(context.Context) (*order.Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &order.Statistics{ByStatus: map[string]int{}}
	for _, o := range r.orders {
		stats.TotalOrders++
		stats.ByStatus[string(o.Status)]++
		if o.Status == order.StatusCompleted {
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	stats.PendingOrders = stats.ByStatus[string(order.StatusPending)]
	return stats, nil
}

// Count returns the number of stored orders.
func (r *OrderRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.OrderItem(nil), o.Items...)
	return &cp
}

// UserRepo is an in-memory user.Repository and user.RefreshTokenRepository.
type UserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*domainUser.User
	resets  map[uuid.UUID]*domainUser.PasswordReset
	tokens  map[uuid.UUID]*domainUser.RefreshToken
	Revoked int
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:  make(map[uuid.UUID]*domainUser.User),
		resets: make(map[uuid.UUID]*domainUser.PasswordReset),
		tokens: make(map[uuid.UUID]*domainUser.RefreshToken),
	}
}

func (r *UserRepo) Create(_ context.Context, u *domainUser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domainUser.ErrUserAlreadyExists
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domainUser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domainUser.ErrUserNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domainUser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) Update(_ context.Context, u *domainUser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.ID]
	if !ok {
		return domainUser.ErrUserNotFound
	}
	existing.Name, existing.Phone, existing.Address = u.Name, u.Phone, u.Address
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domainUser.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *UserRepo) ListCustomers(_ context.Context, page, pageSize int) ([]*domainUser.CustomerSummary, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainUser.CustomerSummary
	for _, u := range r.users {
		if u.Role == domainUser.RoleCustomer {
			cp := *u
			out = append(out, &domainUser.CustomerSummary{User: &cp})
		}
	}
	return out, int64(len(out)), nil
}

func (r *UserRepo) CreatePasswordReset(_ context.Context, reset *domainUser.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset.ID = uuid.New()
	reset.CreatedAt = time.Now().UTC()
	cp := *reset
	r.resets[reset.ID] = &cp
	return nil
}

func (r *UserRepo) GetPasswordResetByHash(_ context.Context, hash string) (*domainUser.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reset := range r.resets {
		if reset.TokenHash == hash {
			cp := *reset
			return &cp, nil
		}
	}
	return nil, domainUser.ErrTokenNotFound
}

func (r *UserRepo) RedeemPasswordReset(_ context.Context, resetID, userID uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[resetID]
	if !ok || !reset.Usable(time.Now()) {
		return domainUser.ErrResetTokenUsed
	}
	u, ok := r.users[userID]
	if !ok {
		return domainUser.ErrUserNotFound
	}
	reset.Used = true
	u.PasswordHash = hash
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *UserRepo) DeleteExpiredPasswordResets(_ context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, reset := range r.resets {
		if reset.Used || reset.ExpiresAt.Before(before) {
			delete(r.resets, id)
		}
	}
	return nil
}

// Tokens adapts the fake to user.RefreshTokenRepository.
func (r *UserRepo) Tokens() *RefreshTokenRepo {
	return &RefreshTokenRepo{r: r}
}

type RefreshTokenRepo struct {
	r *UserRepo
}

func (t *RefreshTokenRepo) Create(_ context.Context, token *domainUser.RefreshToken) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	token.ID = uuid.New()
	cp := *token
	t.r.tokens[token.ID] = &cp
	return nil
}

func (t *RefreshTokenRepo) GetByToken(_ context.Context, token string) (*domainUser.RefreshToken, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	for _, rt := range t.r.tokens {
		if rt.Token == token && !rt.Revoked && rt.ExpiresAt.After(time.Now()) {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, domainUser.ErrTokenNotFound
}

func (t *RefreshTokenRepo) Revoke(_ context.Context, id uuid.UUID) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	rt, ok := t.r.tokens[id]
	if !ok || rt.Revoked {
		return domainUser.ErrTokenNotFound
	}
	rt.Revoked = true
	t.r.Revoked++
	return nil
}

func (t *RefreshTokenRepo) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	for _, rt := range t.r.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			t.r.Revoked++
		}
	}
	return nil
}

func (t *RefreshTokenRepo) DeleteExpired(_ context.Context, olderThan time.Duration) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	for id, rt := range t.r.tokens {
		if rt.ExpiresAt.Before(cutoff) {
			delete(t.r.tokens, id)
		}
	}
	return nil
}

// Mailer records sent messages.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
	Err  error
}

type Mail struct {
	To, Subject, Body string
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Last returns the most recent message, or the zero Mail.
func (m *Mailer) Last() Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Mail{}
	}
	return m.Sent[len(m.Sent)-1]
}

// Events records published order events.
type Events struct {
	mu     sync.Mutex
	Events []order.StatusEvent
}

func (e *Events) Publish(_ context.Context, ev order.StatusEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, ev)
	return nil
}

func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Events)
}

// Cache is an in-memory catalog cache.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
	Hits int
}

func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}
