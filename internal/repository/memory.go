package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/agrobazaar/internal/models"
)

// The in-memory stores back DATABASE_URL=memory:// and the test suites. They
// mirror the unique indexes and ownership scoping of the Postgres stores.

type memoryOTPRepository struct {
	mu      sync.RWMutex
	records map[string]models.OneTimeCode
}

// NewMemoryOTPRepository returns an OTPRepository held in process memory.
func NewMemoryOTPRepository() OTPRepository {
	return &memoryOTPRepository{records: make(map[string]models.OneTimeCode)}
}

func (r *memoryOTPRepository) FindByPhone(_ context.Context, phone string) (*models.OneTimeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (r *memoryOTPRepository) Upsert(_ context.Context, phone, code string) (*models.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	record := r.records[phone]
	record.AssignID()
	record.Touch(now)
	record.Phone = phone
	record.Code = code
	record.IssuedAt = now
	r.records[phone] = record

	return &record, nil
}

func (r *memoryOTPRepository) Redeem(_ context.Context, phone string, markVerified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[phone]
	if !ok {
		return ErrNotFound
	}
	record.Code = ""
	if markVerified {
		record.Verified = true
	}
	record.Touch(time.Now())
	r.records[phone] = record
	return nil
}

type memoryVerifiedPhoneStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryVerifiedPhoneStore returns a VerifiedPhoneStore held in process memory.
func NewMemoryVerifiedPhoneStore() VerifiedPhoneStore {
	return &memoryVerifiedPhoneStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *memoryVerifiedPhoneStore) Mark(_ context.Context, phone string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[phone] = s.now().Add(ttl)
	return nil
}

func (s *memoryVerifiedPhoneStore) IsVerified(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.expires[phone]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.expires, phone)
		return false, nil
	}
	return true, nil
}

func (s *memoryVerifiedPhoneStore) Consume(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, phone)
	return nil
}

type memorySellerRepository struct {
	mu      sync.RWMutex
	sellers map[uuid.UUID]models.Seller
}

// NewMemorySellerRepository returns a SellerRepository held in process memory.
func NewMemorySellerRepository() SellerRepository {
	return &memorySellerRepository{sellers: make(map[uuid.UUID]models.Seller)}
}

// conflicts reports whether another seller already holds s's mobile or email.
func (r *memorySellerRepository) conflicts(s *models.Seller) bool {
	for id, existing := range r.sellers {
		if id == s.ID {
			continue
		}
		if existing.Mobile == s.Mobile {
			return true
		}
		if s.Email != nil && existing.Email != nil && *existing.Email == *s.Email {
			return true
		}
	}
	return false
}

func (r *memorySellerRepository) Create(_ context.Context, seller *models.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seller.AssignID()
	if _, exists := r.sellers[seller.ID]; exists || r.conflicts(seller) {
		return ErrDuplicate
	}
	seller.Touch(time.Now())
	r.sellers[seller.ID] = *seller
	return nil
}

func (r *memorySellerRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seller, ok := r.sellers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &seller, nil
}

func (r *memorySellerRepository) FindByMobile(_ context.Context, mobile string) (*models.Seller, error) {
	return r.find(func(s models.Seller) bool { return s.Mobile == mobile })
}

func (r *memorySellerRepository) FindByEmail(_ context.Context, email string) (*models.Seller, error) {
	return r.find(func(s models.Seller) bool { return s.Email != nil && *s.Email == email })
}

func (r *memorySellerRepository) find(match func(models.Seller) bool) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, seller := range r.sellers {
		if match(seller) {
			found := seller
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memorySellerRepository) List(_ context.Context) ([]models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sellers := make([]models.Seller, 0, len(r.sellers))
	for _, seller := range r.sellers {
		sellers = append(sellers, seller)
	}
	sort.Slice(sellers, func(i, j int) bool {
		return sellers[i].CreatedAt.After(sellers[j].CreatedAt)
	})
	return sellers, nil
}

func (r *memorySellerRepository) Save(_ context.Context, seller *models.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(seller) {
		return ErrDuplicate
	}
	seller.Touch(time.Now())
	r.sellers[seller.ID] = *seller
	return nil
}

func (r *memorySellerRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sellers[id]; !ok {
		return false, nil
	}
	delete(r.sellers, id)
	return true, nil
}

type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]models.Product
}

// NewMemoryProductRepository returns a ProductRepository held in process memory.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{products: make(map[uuid.UUID]models.Product)}
}

func (r *memoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.AssignID()
	if _, exists := r.products[product.ID]; exists {
		return ErrDuplicate
	}
	product.Touch(time.Now())
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) FindOwned(_ context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok || product.SellerID != sellerID {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (r *memoryProductRepository) FindOwnedByIDs(_ context.Context, ids []uuid.UUID, sellerID uuid.UUID) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok && product.SellerID == sellerID {
			found = append(found, product)
		}
	}
	return found, nil
}

func (r *memoryProductRepository) ListOwned(_ context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	filter.Normalize()

	r.mu.RLock()
	matched := make([]models.Product, 0)
	for _, p := range r.products {
		if p.SellerID != filter.SellerID {
			continue
		}
		if filter.Category != "" && string(p.Category) != filter.Category {
			continue
		}
		if filter.Brand != "" && p.Brand != filter.Brand {
			continue
		}
		if filter.MinPrice != nil && p.Price.SellingPrice < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price.SellingPrice > *filter.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		c := compareProducts(matched[i], matched[j], filter.Sort.Field)
		if filter.Sort.Desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func compareProducts(a, b models.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price.mrp":
		return compareFloat(a.Price.MRP, b.Price.MRP)
	case "price.sellingPrice":
		return compareFloat(a.Price.SellingPrice, b.Price.SellingPrice)
	case "stock.quantity":
		return compareFloat(float64(a.Stock.Quantity), float64(b.Stock.Quantity))
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *memoryProductRepository) Save(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.Touch(time.Now())
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) DeleteOwned(_ context.Context, id, sellerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.SellerID != sellerID {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}
