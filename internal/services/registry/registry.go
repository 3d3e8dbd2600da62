// Package registry is the TokenPolicy implementation: a boltdb-backed lookup
// of per-token transfer standard and network fee.
package registry

import (
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/venue-router/internal/adapters/persistence"
	"github.com/hxuan190/venue-router/internal/config"
	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/services"
)

const TOKEN_REGISTRY_SERVICE = "token-registry-service"

var ErrUnknownToken = errors.New("registry: unknown token")

// Service keeps all token policies in memory and writes registrations through
// to disk. Policies are immutable facts once fetched; Register overwrites only
// for operator corrections.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu       sync.RWMutex
	policies map[solana.PublicKey]domain.TokenInfo

	storage *persistence.Storage
	conf    *config.EngineConfig
}

func (svc *Service) ID() string {
	return TOKEN_REGISTRY_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.conf = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	svc.policies = make(map[solana.PublicKey]domain.TokenInfo)
	return nil
}

func (svc *Service) Start() error {
	storage, err := persistence.NewStorage(svc.conf.DBPath)
	if err != nil {
		return err
	}
	svc.storage = storage

	infos, err := storage.LoadAllTokenPolicies()
	if err != nil {
		return err
	}

	svc.mu.Lock()
	for _, info := range infos {
		svc.policies[info.Mint] = info
	}
	svc.mu.Unlock()

	svc.logger.Info().Int("count", len(infos)).Msg("token policies loaded")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

// Lookup returns the policy for a token mint.
func (svc *Service) Lookup(mint solana.PublicKey) (domain.TokenInfo, error) {
	svc.mu.RLock()
	info, ok := svc.policies[mint]
	svc.mu.RUnlock()
	if !ok {
		return domain.TokenInfo{}, ErrUnknownToken
	}
	return info, nil
}

// Register stores a policy and persists it.
func (svc *Service) Register(info domain.TokenInfo) error {
	if err := svc.storage.SaveTokenPolicy(info); err != nil {
		return err
	}

	svc.mu.Lock()
	svc.policies[info.Mint] = info
	svc.mu.Unlock()

	svc.logger.Info().
		Str("mint", info.Mint.String()).
		Str("standard", info.Standard.String()).
		Uint64("fee", info.Fee).
		Msg("token policy registered")
	return nil
}

// Count returns the number of known policies.
func (svc *Service) Count() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.policies)
}
