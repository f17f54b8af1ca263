package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/agrobazaar/internal/models"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/utils"
)

type sentSMS struct {
	Phone   string
	Message string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSMS) Send(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{Phone: phone, Message: message})
	return nil
}

func (f *fakeSMS) last() sentSMS {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentSMS{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeNotifier struct {
	notified []uuid.UUID
	err      error
}

func (f *fakeNotifier) NotifyNewSeller(_ context.Context, seller *models.Seller) error {
	f.notified = append(f.notified, seller.ID)
	return f.err
}

type fakeIndexer struct {
	indexed map[uuid.UUID]string
	deleted []uuid.UUID
	hits    []uuid.UUID
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[uuid.UUID]string{}}
}

func (f *fakeIndexer) Index(_ context.Context, p *models.Product) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[p.ID] = p.Name
	return nil
}

func (f *fakeIndexer) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndexer) Search(_ context.Context, _ uuid.UUID, _ string, _ int) ([]uuid.UUID, error) {
	return f.hits, f.err
}

var errProvider = errors.New("provider down")

// fixture wires the services over in-memory stores.
type fixture struct {
	codes    repository.OTPRepository
	verified repository.VerifiedPhoneStore
	sellers  repository.SellerRepository
	products repository.ProductRepository
	sms      *fakeSMS
	notifier *fakeNotifier
	indexer  *fakeIndexer
	tokens   *utils.TokenIssuer

	otp     *OTPService
	account *SellerService
	catalog *ProductService
}

func newFixture() *fixture {
	f := &fixture{
		codes:    repository.NewMemoryOTPRepository(),
		verified: repository.NewMemoryVerifiedPhoneStore(),
		sellers:  repository.NewMemorySellerRepository(),
		products: repository.NewMemoryProductRepository(),
		sms:      &fakeSMS{},
		notifier: &fakeNotifier{},
		indexer:  newFakeIndexer(),
		tokens:   utils.NewTokenIssuer("test-secret", 720*time.Hour),
	}
	f.otp = NewOTPService(f.codes, f.verified, f.sellers, f.sms, f.tokens, 30*time.Minute)
	f.account = NewSellerService(f.sellers, f.verified, f.tokens, f.notifier)
	f.catalog = NewProductService(f.products, f.indexer)
	return f
}

// sequence returns a generator yielding codes in order, repeating the last.
func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}

func codeFrom(message string) string {
	fields := strings.Fields(message)
	for _, f := range fields {
		f = strings.TrimSuffix(f, ".")
		if len(f) == 4 && strings.Trim(f, "0123456789") == "" {
			return f
		}
	}
	return ""
}

func sellerInput(mobile string) SellerInput {
	return SellerInput{
		Name:         "Ravi Patil",
		Mobile:       mobile,
		Gender:       models.GenderMale,
		StoreDetails: &StoreDetailsInput{StoreName: "Patil Agro"},
		StoreAddress: &models.StoreAddress{Village: "Wadgaon", District: "Latur", Pincode: "413512"},
		BankDetails:  &models.BankDetails{AccountHolderName: "Ravi Patil", IFSCCode: "SBIN0000001"},
	}
}

func intPtr(v int) *int { return &v }
