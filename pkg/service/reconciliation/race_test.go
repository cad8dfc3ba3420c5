package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/pkg/domain/merchant"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	merchantrepo "github.com/amirasaad/paylink/pkg/repository/merchant"
	txrepo "github.com/amirasaad/paylink/pkg/repository/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubUoW runs fn inline over fixed repositories.
type stubUoW struct {
	repos map[reflect.Type]any
}

func (u *stubUoW) Do(_ context.Context, fn func(repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *stubUoW) GetRepository(t reflect.Type) (any, error) {
	r, ok := u.repos[t]
	if !ok {
		return nil, fmt.Errorf("no repository for %s", t)
	}
	return r, nil
}

type mockTransactions struct{ mock.Mock }

func (m *mockTransactions) tx(args mock.Arguments) (*transaction.Transaction, error) {
	if v := args.Get(0); v != nil {
		return v.(*transaction.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactions) Create(ctx context.Context, tx *transaction.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockTransactions) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return m.tx(m.Called(ctx, id))
}

func (m *mockTransactions) GetByReference(ctx context.Context, p, reference string) (*transaction.Transaction, error) {
	return m.tx(m.Called(ctx, p, reference))
}

func (m *mockTransactions) AttachReference(ctx context.Context, id uuid.UUID, reference string, metadata map[string]any) error {
	return m.Called(ctx, id, reference, metadata).Error(0)
}

func (m *mockTransactions) TransitionFromPending(
	ctx context.Context,
	id uuid.UUID,
	next transaction.Status,
	metadata map[string]any,
	at time.Time,
) (bool, error) {
	args := m.Called(ctx, id, next, metadata, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockTransactions) UpdatePendingMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) (bool, error) {
	args := m.Called(ctx, id, metadata)
	return args.Bool(0), args.Error(1)
}

func (m *mockTransactions) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

type mockMerchants struct{ mock.Mock }

func (m *mockMerchants) Create(ctx context.Context, mc *merchant.Merchant) error {
	return m.Called(ctx, mc).Error(0)
}

func (m *mockMerchants) Get(ctx context.Context, id uuid.UUID) (*merchant.Merchant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*merchant.Merchant), args.Error(1)
}

func (m *mockMerchants) GetByEmail(ctx context.Context, email string) (*merchant.Merchant, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(*merchant.Merchant), args.Error(1)
}

func (m *mockMerchants) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockMerchants) DebitIfSufficient(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Bool(0), args.Error(1)
}

func TestApplyNotification_LostTransitionRaceIsNoOp(t *testing.T) {
	tests := []struct {
		name    string
		typ     transaction.Type
		claimed transaction.Status
		winner  transaction.Status
	}{
		{"payment completion loses to completion", transaction.TypePayment, transaction.StatusCompleted, transaction.StatusCompleted},
		{"payment completion loses to failure", transaction.TypePayment, transaction.StatusCompleted, transaction.StatusFailed},
		{"withdrawal failure loses to completion", transaction.TypeWithdrawal, transaction.StatusFailed, transaction.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending, err := transaction.New(uuid.New(), tt.typ, decimal.NewFromInt(50), "USD", transaction.MethodCard, "pesapal", "KE")
			require.NoError(t, err)
			pending.Reference = "ORD-9"
			settled := *pending
			settled.Status = tt.winner

			txs := &mockTransactions{}
			merchants := &mockMerchants{}
			txs.On("GetByReference", mock.Anything, "pesapal", "ORD-9").Return(pending, nil).Once()
			txs.On("TransitionFromPending", mock.Anything, pending.ID, tt.claimed, mock.Anything, mock.Anything).
				Return(false, nil).Once()
			txs.On("Get", mock.Anything, pending.ID).Return(&settled, nil).Once()

			uow := &stubUoW{repos: map[reflect.Type]any{
				reflect.TypeOf((*txrepo.Repository)(nil)).Elem():       txs,
				reflect.TypeOf((*merchantrepo.Repository)(nil)).Elem(): merchants,
			}}
			bus := infraeventbus.NewWithMemory(slog.Default())
			svc := New(uow, provider.NewSet(), bus, slog.Default())

			res, err := svc.ApplyNotification(context.Background(), Notification{
				Provider:  "pesapal",
				Reference: "ORD-9",
				Status:    tt.claimed,
			})
			require.NoError(t, err)
			assert.False(t, res.Applied)
			assert.Equal(t, tt.winner, res.Transaction.Status)

			txs.AssertExpectations(t)
			merchants.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, bus.Published())
		})
	}
}
