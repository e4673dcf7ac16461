package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patisserie/internal/common"
	"patisserie/internal/models"
)

// fakeUserRepo keeps users in a map keyed by e-mail.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, common.ErrConflict
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	f.users[u.Email] = &u
	out := u
	return &out, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, email string) error {
	u, ok := f.users[email]
	if !ok {
		return common.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	u, ok := f.users[email]
	if !ok {
		return common.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUserRepo) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	u, ok := f.users[email]
	if !ok {
		return common.ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

// fakeOTPLedger hands out a fixed code and walks the same verification state
// machine as the real stores.
type fakeOTPLedger struct {
	code        string
	ttl         time.Duration
	maxAttempts int
	records     map[string]*models.OTP
	issueErr    error
}

func newFakeOTPLedger() *fakeOTPLedger {
	return &fakeOTPLedger{
		code:        "12345",
		ttl:         5 * time.Minute,
		maxAttempts: 3,
		records:     make(map[string]*models.OTP),
	}
}

func (f *fakeOTPLedger) Issue(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	now := time.Now()
	if rec, ok := f.records[email]; ok && rec.IsActive(now, f.maxAttempts) && !rec.IsVerified {
		return nil, common.ErrOTPConflict
	}
	f.records[email] = &models.OTP{
		Email:     email,
		Code:      f.code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(f.ttl),
	}
	return &models.OTPIssue{Code: f.code, ExpiresAt: now.Add(f.ttl)}, nil
}

func (f *fakeOTPLedger) Verify(ctx context.Context, email, code string) (*models.OTP, error) {
	rec, ok := f.records[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	now := time.Now()
	switch {
	case rec.IsVerified:
		return nil, common.ErrAlreadyVerified
	case rec.IsExpired(now):
		return nil, common.ErrOTPExpired
	case rec.IsLocked(f.maxAttempts):
		return nil, &common.TooManyAttemptsError{RetryAfter: time.Until(rec.ExpiresAt)}
	case rec.Code != code:
		rec.Attempts++
		return nil, common.ErrInvalidCode
	}
	rec.IsVerified = true
	out := *rec
	return &out, nil
}

// fakeEmailService records deliveries instead of dialing SMTP.
type fakeEmailService struct {
	sent    []string
	sendErr error
}

func (f *fakeEmailService) SendOTPEmail(to, code string, ttl time.Duration) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to)
	return nil
}

// fakePastryRepo keeps pastries in a map keyed by ID.
type fakePastryRepo struct {
	pastries map[primitive.ObjectID]*models.Pastry
}

func newFakePastryRepo() *fakePastryRepo {
	return &fakePastryRepo{pastries: make(map[primitive.ObjectID]*models.Pastry)}
}

func (f *fakePastryRepo) add(name string, stock float64) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.pastries[id] = &models.Pastry{ID: id, Name: name, Stock: stock}
	return id
}

func (f *fakePastryRepo) Create(ctx context.Context, pastry *models.Pastry) (*models.Pastry, error) {
	p := *pastry
	p.ID = primitive.NewObjectID()
	f.pastries[p.ID] = &p
	out := p
	return &out, nil
}

func (f *fakePastryRepo) FindByID(ctx context.Context, pastryID primitive.ObjectID) (*models.Pastry, error) {
	p, ok := f.pastries[pastryID]
	if !ok || p.IsDeleted {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakePastryRepo) List(ctx context.Context, skip, limit int64) ([]models.Pastry, error) {
	var out []models.Pastry
	for _, p := range f.pastries {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePastryRepo) Update(ctx context.Context, pastryID primitive.ObjectID, updateFields bson.M) (*models.Pastry, error) {
	p, ok := f.pastries[pastryID]
	if !ok || p.IsDeleted {
		return nil, common.ErrNotFound
	}
	if name, ok := updateFields["name"].(string); ok {
		p.Name = name
	}
	if stock, ok := updateFields["stock"].(float64); ok {
		p.Stock = stock
	}
	out := *p
	return &out, nil
}

func (f *fakePastryRepo) SoftDelete(ctx context.Context, pastryID primitive.ObjectID) error {
	p, ok := f.pastries[pastryID]
	if !ok || p.IsDeleted {
		return common.ErrNotFound
	}
	p.IsDeleted = true
	return nil
}

func (f *fakePastryRepo) AdjustStock(ctx context.Context, pastryID primitive.ObjectID, delta float64) error {
	p, ok := f.pastries[pastryID]
	if !ok || p.IsDeleted {
		return common.ErrNotFound
	}
	if delta < 0 && p.Stock < -delta {
		return common.ErrConflict
	}
	p.Stock += delta
	return nil
}

// fakeOrderRepo keeps orders in a map keyed by ID.
type fakeOrderRepo struct {
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	o := *order
	o.ID = primitive.NewObjectID()
	o.Status = models.OrderPending
	o.CreatedAt = time.Now()
	f.orders[o.ID] = &o
	out := o
	return &out, nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (f *fakeOrderRepo) ListAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, adminMessage string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, common.ErrNotFound
	}
	o.Status = status
	o.AdminMessage = adminMessage
	out := *o
	return &out, nil
}
