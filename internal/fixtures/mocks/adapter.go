// Package mocks holds testify mocks shared by service and webapi tests.
package mocks

import (
	"context"
	"net/http"

	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/stretchr/testify/mock"
)

// Adapter is a mock provider.Adapter.
type Adapter struct {
	mock.Mock
	KindValue provider.Kind
}

// NewAdapter creates a mock adapter reporting kind.
func NewAdapter(kind provider.Kind) *Adapter {
	return &Adapter{KindValue: kind}
}

func (m *Adapter) Kind() provider.Kind { return m.KindValue }

func (m *Adapter) Initiate(
	ctx context.Context,
	intent *provider.Intent,
	cfg *providerconfig.ProviderConfig,
) (*provider.Initiation, error) {
	args := m.Called(ctx, intent, cfg)
	out, _ := args.Get(0).(*provider.Initiation)
	return out, args.Error(1)
}

func (m *Adapter) FetchStatus(
	ctx context.Context,
	reference string,
	cfg *providerconfig.ProviderConfig,
) (*provider.StatusResult, error) {
	args := m.Called(ctx, reference, cfg)
	out, _ := args.Get(0).(*provider.StatusResult)
	return out, args.Error(1)
}

func (m *Adapter) Verify(body []byte, header http.Header, secret string) bool {
	args := m.Called(body, header, secret)
	return args.Bool(0)
}

func (m *Adapter) ParseNotification(body []byte) (*provider.Notification, error) {
	args := m.Called(body)
	out, _ := args.Get(0).(*provider.Notification)
	return out, args.Error(1)
}

var _ provider.Adapter = (*Adapter)(nil)
